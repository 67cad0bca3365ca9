package model

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// FakeE164 returns a random, well-formed US number in E.164 form.
func FakeE164() string {
	return fmt.Sprintf("+1%d%03d%04d", gofakeit.Number(2, 9)*100+gofakeit.Number(10, 99), gofakeit.Number(200, 999), gofakeit.Number(0, 9999))
}

// NewCall creates a Call with fake data. Non-zero fields of the override replace the defaults.
func NewCall(overrideDefaults ...*Call) *Call {
	base := &Call{
		ID:             uuid.NewString(),
		ExternalCallID: "call_" + gofakeit.LetterN(16),
		OrganizationID: uuid.NewString(),
		FromNumber:     FakeE164(),
		ToNumber:       FakeE164(),
		Status:         CallStatusRinging,
		CreatedAt:      utils.Now().Add(-time.Duration(gofakeit.Number(1, 60)) * time.Minute),
		UpdatedAt:      utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.ExternalCallID != "" {
			base.ExternalCallID = ovr.ExternalCallID
		}
		if ovr.OrganizationID != "" {
			base.OrganizationID = ovr.OrganizationID
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		base.CustomerID = ovr.CustomerID
		base.Transcript = ovr.Transcript
		base.Summary = ovr.Summary
		base.RecordingURL = ovr.RecordingURL
		base.DurationSeconds = ovr.DurationSeconds
		base.AIHandled = ovr.AIHandled
		base.EndedAt = ovr.EndedAt
	}
	return base
}

// NewCustomer creates a Customer with fake data.
func NewCustomer(overrideDefaults ...*Customer) *Customer {
	base := &Customer{
		ID:             uuid.NewString(),
		OrganizationID: uuid.NewString(),
		Name:           gofakeit.Name(),
		Phone:          FakeE164(),
		Address:        gofakeit.Address().Address,
		Source:         JobSourceAICall,
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.OrganizationID != "" {
			base.OrganizationID = ovr.OrganizationID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Address != "" {
			base.Address = ovr.Address
		}
	}
	return base
}

// NewJob creates a Job with fake data.
func NewJob(overrideDefaults ...*Job) *Job {
	base := &Job{
		ID:             uuid.NewString(),
		OrganizationID: uuid.NewString(),
		CustomerID:     uuid.NewString(),
		Title:          "Service request",
		Description:    gofakeit.Sentence(8),
		Address:        gofakeit.Address().Address,
		Priority:       JobPriorityNormal,
		Status:         JobStatusLead,
		Source:         JobSourceAICall,
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.OrganizationID != "" {
			base.OrganizationID = ovr.OrganizationID
		}
		if ovr.CustomerID != "" {
			base.CustomerID = ovr.CustomerID
		}
		if ovr.Priority != "" {
			base.Priority = ovr.Priority
		}
		base.CallID = ovr.CallID
	}
	return base
}

// NewOrganization creates an Organization with fake data.
func NewOrganization(overrideDefaults ...*Organization) *Organization {
	base := &Organization{
		ID:          uuid.NewString(),
		Name:        gofakeit.Company(),
		PhoneNumber: FakeE164(),
		Timezone:    "America/Chicago",
		CreatedAt:   utils.Now(),
		UpdatedAt:   utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		base.AssistantName = ovr.AssistantName
		base.Greeting = ovr.Greeting
	}
	return base
}

// --- Webhook payload builders ---

// FakeCallScript is a generated call used to drive webhook deliveries end to end.
type FakeCallScript struct {
	CallID         string
	OrganizationID string
	CallerNumber   string
	StartedAt      time.Time
}

// NewFakeCallScript creates a scripted call for the given organization.
func NewFakeCallScript(organizationID string) *FakeCallScript {
	return &FakeCallScript{
		CallID:         "call_" + gofakeit.LetterN(16),
		OrganizationID: organizationID,
		CallerNumber:   FakeE164(),
		StartedAt:      utils.Now(),
	}
}

func (s *FakeCallScript) call() map[string]interface{} {
	return map[string]interface{}{
		"id":       s.CallID,
		"type":     "inboundPhoneCall",
		"customer": map[string]interface{}{"number": s.CallerNumber},
		"metadata": map[string]interface{}{"organizationId": s.OrganizationID},
	}
}

func envelope(message map[string]interface{}) []byte {
	return utils.MustMarshalJSON(map[string]interface{}{"message": message})
}

// StatusUpdate builds a status-update delivery.
func (s *FakeCallScript) StatusUpdate(status string) []byte {
	return envelope(map[string]interface{}{
		"type":   string(EventStatusUpdate),
		"status": status,
		"call":   s.call(),
	})
}

// Transcript builds a final transcript delivery.
func (s *FakeCallScript) Transcript(text string) []byte {
	return envelope(map[string]interface{}{
		"type":           string(EventTranscript),
		"transcriptType": "final",
		"role":           "user",
		"transcript":     text,
		"call":           s.call(),
	})
}

// BookingToolCalls builds a tool-calls delivery that checks availability and books a job.
func (s *FakeCallScript) BookingToolCalls() []byte {
	booking := utils.MustMarshalJSON(map[string]interface{}{
		"customerName":     gofakeit.Name(),
		"phone":            s.CallerNumber,
		"address":          gofakeit.Address().Address,
		"issueDescription": gofakeit.Sentence(6),
		"isEmergency":      gofakeit.Bool(),
	})
	return envelope(map[string]interface{}{
		"type": string(EventToolCalls),
		"call": s.call(),
		"toolCallList": []interface{}{
			map[string]interface{}{
				"id":       "tc_" + gofakeit.LetterN(10),
				"type":     "function",
				"function": map[string]interface{}{"name": ToolCheckAvailability, "arguments": `{"date":"tomorrow"}`},
			},
			map[string]interface{}{
				"id":       "tc_" + gofakeit.LetterN(10),
				"type":     "function",
				"function": map[string]interface{}{"name": ToolBookAppointment, "arguments": string(booking)},
			},
		},
	})
}

// EndOfCallReport builds the final report with a plausible conversation.
func (s *FakeCallScript) EndOfCallReport(duration time.Duration) []byte {
	start := float64(s.StartedAt.UnixMilli())
	end := start + float64(duration.Milliseconds())
	return envelope(map[string]interface{}{
		"type":        string(EventEndOfCallReport),
		"endedReason": EndedReasonCustomerHangup,
		"call":        s.call(),
		"analysis":    map[string]interface{}{"summary": gofakeit.Sentence(12)},
		"artifact": map[string]interface{}{
			"transcript":   "AI: Hello, how can I help?\nUser: " + gofakeit.Sentence(10),
			"recordingUrl": gofakeit.URL() + "/recording.wav",
			"messages": []interface{}{
				map[string]interface{}{"role": "system", "message": "prompt", "time": start},
				map[string]interface{}{"role": "bot", "message": "Hello, how can I help?", "time": start + 1200},
				map[string]interface{}{"role": "user", "message": gofakeit.Sentence(6), "time": end},
			},
		},
	})
}
