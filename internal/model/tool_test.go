package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ToolArguments
		wantErr bool
	}{
		{"object", `{"date":"2025-01-06"}`, ToolArguments{"date": "2025-01-06"}, false},
		{"string encoded", `"{\"reason\":\"angry\"}"`, ToolArguments{"reason": "angry"}, false},
		{"empty", ``, ToolArguments{}, false},
		{"null", `null`, ToolArguments{}, false},
		{"empty string", `""`, ToolArguments{}, false},
		{"broken string", `"{not json"`, nil, true},
		{"array", `[1,2]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := ToolInvocation{Name: "x", RawArguments: json.RawMessage(tt.raw)}
			got, err := inv.ParseArguments()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToolArgumentsDecode(t *testing.T) {
	var target struct {
		Name      string `json:"customerName"`
		Emergency bool   `json:"isEmergency"`
	}
	args := ToolArguments{"customerName": "Dana", "isEmergency": true, "extra": 1}
	require.NoError(t, args.Decode(&target))
	assert.Equal(t, "Dana", target.Name)
	assert.True(t, target.Emergency)
}

func TestToolResultPayload(t *testing.T) {
	ok := ToolResult{ToolCallID: "tc1", Name: ToolCheckAvailability, Value: map[string]interface{}{"available": true}}
	assert.False(t, ok.Failed())
	assert.JSONEq(t, `{"available":true}`, ok.PayloadString())

	failed := ToolResult{ToolCallID: "tc2", Name: ToolBookAppointment, Error: "timed out"}
	assert.True(t, failed.Failed())
	assert.JSONEq(t, `{"success":false,"error":"timed out"}`, failed.PayloadString())

	plain := ToolResult{Value: "done"}
	assert.Equal(t, "done", plain.PayloadString())
}
