package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tool names the assistant may invoke.
const (
	ToolBookAppointment   = "book_appointment"
	ToolCheckAvailability = "check_availability"
	ToolTransferToHuman   = "transfer_to_human"
)

// ToolExecContext is the application context every tool invocation of one event runs under.
type ToolExecContext struct {
	OrganizationID string
	CallID         string // provider call id, empty when the event carried none
	CallerNumber   string
	CustomerID     string
}

// ToolInvocation is a single tool request from the assistant.
type ToolInvocation struct {
	ID           string // correlation id echoed back with the result; empty for legacy calls
	Name         string
	RawArguments json.RawMessage
}

// ToolArguments is the decoded argument bag of an invocation.
type ToolArguments map[string]interface{}

// ParseArguments decodes the invocation arguments, which arrive either as a JSON
// object or as a JSON string containing an object.
func (inv ToolInvocation) ParseArguments() (ToolArguments, error) {
	raw := bytes.TrimSpace(inv.RawArguments)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ToolArguments{}, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("decode argument string: %w", err)
		}
		if len(bytes.TrimSpace([]byte(encoded))) == 0 {
			return ToolArguments{}, nil
		}
		raw = []byte(encoded)
	}

	args := ToolArguments{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	return args, nil
}

// Decode copies the argument bag into a typed struct.
func (a ToolArguments) Decode(target interface{}) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ToolResult is the outcome of one invocation. Exactly one is produced per invocation.
type ToolResult struct {
	ToolCallID string      `json:"toolCallId,omitempty"`
	Name       string      `json:"name"`
	Value      interface{} `json:"value,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Failed reports whether the invocation produced an error marker instead of a value.
func (r ToolResult) Failed() bool {
	return r.Error != ""
}

// Payload is what the assistant receives for this invocation.
func (r ToolResult) Payload() interface{} {
	if r.Failed() {
		return map[string]interface{}{"success": false, "error": r.Error}
	}
	return r.Value
}

// PayloadString is the payload encoded as a JSON string, the form batched tool responses use.
func (r ToolResult) PayloadString() string {
	payload := r.Payload()
	if s, ok := payload.(string); ok {
		return s
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(data)
}

// ToolCallResponse is the response body for a batched tool-calls event.
type ToolCallResponse struct {
	Results []ToolCallResponseItem `json:"results"`
}

// ToolCallResponseItem pairs a correlation id with its encoded result.
type ToolCallResponseItem struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// FunctionCallResponse is the response body for a legacy function-call event.
type FunctionCallResponse struct {
	Result interface{} `json:"result"`
}
