package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// availabilitySlots are the standing appointment windows offered on any day.
var availabilitySlots = []string{"8:00 AM - 10:00 AM", "12:00 PM - 2:00 PM", "3:00 PM - 5:00 PM"}

// AvailabilityTool answers check_availability with the standing daily windows.
type AvailabilityTool struct{}

type availabilityArgs struct {
	Date string `json:"date"`
}

func (AvailabilityTool) Name() string { return model.ToolCheckAvailability }

func (AvailabilityTool) Definition() model.ToolDefinition {
	return functionTool(model.ToolCheckAvailability,
		"Check which appointment windows are open on a given day.",
		map[string]interface{}{
			"date": stringProperty("The day the caller asked about, e.g. 'tomorrow' or '2025-03-14'."),
		},
		"date",
	)
}

func (AvailabilityTool) Handle(_ context.Context, _ model.ToolExecContext, args model.ToolArguments) (interface{}, error) {
	var in availabilityArgs
	if err := args.Decode(&in); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToolArguments, err)
	}

	day := strings.TrimSpace(in.Date)
	if day == "" {
		day = "that day"
	}
	slots := make([]string, len(availabilitySlots))
	copy(slots, availabilitySlots)

	return map[string]interface{}{
		"available": true,
		"slots":     slots,
		"message":   fmt.Sprintf("We have openings %s: %s. Which window works best for you?", day, strings.Join(slots, ", ")),
	}, nil
}
