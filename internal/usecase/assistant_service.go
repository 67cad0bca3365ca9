package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/config"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/phone"
)

// AssistantService builds the assistant that answers an inbound call.
type AssistantService struct {
	organizations storage.OrganizationRepo
	registry      *ToolRegistry
	cfg           config.AssistantConfig
	region        string
}

// NewAssistantService creates a new assistant service
func NewAssistantService(organizations storage.OrganizationRepo, registry *ToolRegistry, cfg config.AssistantConfig, region string) *AssistantService {
	return &AssistantService{
		organizations: organizations,
		registry:      registry,
		cfg:           cfg,
		region:        region,
	}
}

// HandleAssistantRequest resolves the dialed organization and returns its assistant.
// An unknown organization yields an error wrapping apperrors.ErrNotFound.
func (s *AssistantService) HandleAssistantRequest(ctx context.Context, event *model.AssistantRequestEvent) (*model.AssistantResponse, error) {
	org, err := s.resolveOrganization(ctx, event)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Serving assistant for inbound call",
		zap.String("organization_id", org.ID),
		zap.String("external_call_id", event.Call.ID),
	)
	return &model.AssistantResponse{Assistant: s.buildAssistant(org)}, nil
}

func (s *AssistantService) resolveOrganization(ctx context.Context, event *model.AssistantRequestEvent) (*model.Organization, error) {
	if id := event.Call.Metadata.OrganizationID; id != "" {
		return s.organizations.FindByID(ctx, id)
	}

	dialed := ""
	if event.PhoneNumber != nil {
		dialed = event.PhoneNumber.Number
	}
	if dialed == "" {
		dialed = event.Call.DialedNumber()
	}
	if dialed == "" {
		return nil, fmt.Errorf("%w: assistant request names no organization or dialed number", apperrors.ErrNotFound)
	}

	return s.organizations.FindByPhoneNumber(ctx, phone.NormalizeE164(dialed, s.region))
}

func (s *AssistantService) buildAssistant(org *model.Organization) *model.Assistant {
	name := s.cfg.Name
	if org.AssistantName != "" {
		name = org.AssistantName
	}
	greeting := withBusinessName(s.cfg.Greeting, org.Name)
	if org.Greeting != "" {
		greeting = org.Greeting
	}

	return &model.Assistant{
		Name:         name,
		FirstMessage: greeting,
		Model: model.AssistantModel{
			Provider: s.cfg.ModelProvider,
			Model:    s.cfg.Model,
			Messages: []model.AssistantMessage{
				{Role: "system", Content: withBusinessName(s.cfg.SystemPrompt, org.Name)},
			},
			Tools: s.registry.Definitions(),
		},
		Voice: model.AssistantVoice{
			Provider: s.cfg.VoiceProvider,
			VoiceID:  s.cfg.VoiceID,
		},
		ServerURL: s.cfg.ServerURL,
		Metadata:  map[string]string{"organizationId": org.ID},
	}
}

// withBusinessName fills a single %s placeholder with the business name; templates without one are used as-is.
func withBusinessName(template, business string) string {
	if strings.Count(template, "%s") != 1 {
		return template
	}
	return fmt.Sprintf(template, business)
}
