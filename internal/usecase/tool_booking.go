package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/validator"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/phone"
)

const (
	bookingFailedMessage     = "I'm sorry, I wasn't able to finish booking that just now, but someone from our team will call you back shortly."
	bookingMissingMessage    = "I still need a few details before I can book this: %s. Could you tell me?"
	bookingEmergencyMessage  = "I've logged this as an emergency. A technician will call you back within the next few minutes to arrange someone right away."
	bookingRoutineMessage    = "You're all set%s. I've booked your request and someone from our team will call to confirm the appointment time."
	customerSourceAICall     = "ai_call"
	maxJobTitleLength        = 80
	bookingPreferredDateTime = "2006-01-02"
)

// BookingTool creates a lead job for the caller, finding or creating the customer.
type BookingTool struct {
	customers storage.CustomerRepo
	jobs      storage.JobRepo
	calls     storage.CallRepo
	region    string
}

// NewBookingTool creates the book_appointment handler. region is used for numbers without a country code.
func NewBookingTool(customers storage.CustomerRepo, jobs storage.JobRepo, calls storage.CallRepo, region string) *BookingTool {
	return &BookingTool{customers: customers, jobs: jobs, calls: calls, region: region}
}

type bookingArgs struct {
	CustomerName     string   `json:"customerName" validate:"required"`
	Phone            string   `json:"phone"`
	Address          string   `json:"address" validate:"required"`
	IssueDescription string   `json:"issueDescription" validate:"required"`
	IsEmergency      flexBool `json:"isEmergency"`
	PreferredDate    string   `json:"preferredDate"`
}

// flexBool accepts true/false as a JSON bool, string or number; models are not consistent about it.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*b = false
	case bool:
		*b = flexBool(t)
	case float64:
		*b = t != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			parsed = strings.EqualFold(strings.TrimSpace(t), "yes")
		}
		*b = flexBool(parsed)
	default:
		return fmt.Errorf("cannot use %T as a boolean", v)
	}
	return nil
}

func (t *BookingTool) Name() string { return model.ToolBookAppointment }

func (t *BookingTool) Definition() model.ToolDefinition {
	return functionTool(model.ToolBookAppointment,
		"Book a service appointment for the caller once their details are collected.",
		map[string]interface{}{
			"customerName":     stringProperty("The caller's full name."),
			"phone":            stringProperty("Callback number. Defaults to the number the caller is calling from."),
			"address":          stringProperty("Service address."),
			"issueDescription": stringProperty("What needs fixing, in the caller's words."),
			"isEmergency":      map[string]interface{}{"type": "boolean", "description": "True when the caller reports an emergency."},
			"preferredDate":    stringProperty("Preferred day, if the caller named one."),
		},
		"customerName", "address", "issueDescription", "isEmergency",
	)
}

// Handle never returns an error: every failure becomes a graceful message for the caller.
func (t *BookingTool) Handle(ctx context.Context, exec model.ToolExecContext, args model.ToolArguments) (interface{}, error) {
	log := logger.FromContext(ctx)

	var in bookingArgs
	if err := args.Decode(&in); err != nil {
		log.Warn("Undecodable booking arguments", zap.Error(err))
		return bookingResult(false, bookingFailedMessage, ""), nil
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Address = strings.TrimSpace(in.Address)
	in.IssueDescription = strings.TrimSpace(in.IssueDescription)

	if err := validator.Validate(in); err != nil {
		log.Info("Booking arguments incomplete", zap.Error(err))
		return bookingResult(false, fmt.Sprintf(bookingMissingMessage, missingBookingFields(in)), ""), nil
	}

	phoneNumber := phone.NormalizeE164(in.Phone, t.region)
	if !phone.IsE164(phoneNumber) {
		phoneNumber = phone.NormalizeE164(exec.CallerNumber, t.region)
	}
	if !phone.IsE164(phoneNumber) {
		return bookingResult(false, fmt.Sprintf(bookingMissingMessage, "a callback phone number"), ""), nil
	}

	customer, err := t.findOrCreateCustomer(ctx, exec.OrganizationID, phoneNumber, in)
	if err != nil {
		log.Error("Booking failed to resolve customer", zap.Error(err))
		observer.IncSideEffectFailure("booking_customer", err)
		return bookingResult(false, bookingFailedMessage, ""), nil
	}

	job := t.newJob(exec, customer, in)
	if err := t.jobs.Save(ctx, job); err != nil {
		log.Error("Booking failed to create job", zap.String("customer_id", customer.ID), zap.Error(err))
		observer.IncSideEffectFailure("booking_job", err)
		return bookingResult(false, bookingFailedMessage, ""), nil
	}

	if exec.CallID != "" {
		if err := t.calls.MarkAIHandled(ctx, exec.CallID); err != nil {
			log.Warn("Failed to mark call AI-handled after booking", zap.Error(err))
		}
	}

	log.Info("Appointment booked",
		zap.String("job_id", job.ID),
		zap.String("customer_id", customer.ID),
		zap.Bool("emergency", bool(in.IsEmergency)),
	)

	if in.IsEmergency {
		return bookingResult(true, bookingEmergencyMessage, job.ID), nil
	}
	return bookingResult(true, fmt.Sprintf(bookingRoutineMessage, firstNameSuffix(in.CustomerName)), job.ID), nil
}

func (t *BookingTool) findOrCreateCustomer(ctx context.Context, organizationID, phoneNumber string, in bookingArgs) (*model.Customer, error) {
	customer, err := t.customers.FindByPhone(ctx, organizationID, phoneNumber)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	customer = &model.Customer{
		OrganizationID: organizationID,
		Name:           in.CustomerName,
		Phone:          phoneNumber,
		Address:        in.Address,
		Source:         customerSourceAICall,
	}
	err = t.customers.Save(ctx, customer)
	if errors.Is(err, apperrors.ErrDuplicate) {
		// Another booking for the same caller created the customer first.
		return t.customers.FindByPhone(ctx, organizationID, phoneNumber)
	}
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (t *BookingTool) newJob(exec model.ToolExecContext, customer *model.Customer, in bookingArgs) *model.Job {
	priority := model.JobPriorityNormal
	title := in.IssueDescription
	if in.IsEmergency {
		priority = model.JobPriorityEmergency
		title = "Emergency: " + title
	}
	if runes := []rune(title); len(runes) > maxJobTitleLength {
		title = string(runes[:maxJobTitleLength-3]) + "..."
	}

	details := map[string]interface{}{
		"customerName": in.CustomerName,
		"callerNumber": exec.CallerNumber,
	}
	var preferred *time.Time
	if in.PreferredDate != "" {
		details["preferredDate"] = in.PreferredDate
		preferred = parsePreferredDate(in.PreferredDate)
	}
	detailsJSON, _ := json.Marshal(details)

	job := &model.Job{
		OrganizationID: exec.OrganizationID,
		CustomerID:     customer.ID,
		Title:          title,
		Description:    in.IssueDescription,
		Address:        in.Address,
		Priority:       priority,
		Status:         model.JobStatusLead,
		Source:         model.JobSourceAICall,
		PreferredDate:  preferred,
		Details:        datatypes.JSON(detailsJSON),
	}
	if exec.CallID != "" {
		callID := exec.CallID
		job.CallID = &callID
	}
	return job
}

func parsePreferredDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, bookingPreferredDateTime} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

func missingBookingFields(in bookingArgs) string {
	var missing []string
	if in.CustomerName == "" {
		missing = append(missing, "your name")
	}
	if in.Address == "" {
		missing = append(missing, "the service address")
	}
	if in.IssueDescription == "" {
		missing = append(missing, "a short description of the problem")
	}
	return strings.Join(missing, ", ")
}

func firstNameSuffix(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return ", " + fields[0]
}

func bookingResult(success bool, message, jobID string) map[string]interface{} {
	result := map[string]interface{}{
		"success": success,
		"message": message,
	}
	if jobID != "" {
		result["jobId"] = jobID
	}
	return result
}
