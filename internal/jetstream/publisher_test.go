package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/jetstream"
	jsmock "github.com/anonymousaccountforfun/serviceflow-sub004/internal/jetstream/mock"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

func newCallCompleted() model.DomainEvent {
	return model.DomainEvent{
		ID:             "evt-1",
		Type:           model.DomainEventCallCompleted,
		OrganizationID: "org-1",
		AggregateType:  model.AggregateCall,
		AggregateID:    "call-1",
		Data:           map[string]interface{}{"durationSeconds": 42, "aiHandled": true},
		OccurredAt:     time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC),
	}
}

func TestDomainEventPublisher_Publish(t *testing.T) {
	client := new(jsmock.ClientMock)
	publisher := jetstream.NewDomainEventPublisher(client, "v1.domain")
	event := newCallCompleted()

	client.On("Publish", mock.Anything, "v1.domain.call.completed", "evt-1", mock.MatchedBy(func(data []byte) bool {
		var decoded model.DomainEvent
		if err := json.Unmarshal(data, &decoded); err != nil {
			return false
		}
		return decoded.AggregateID == "call-1" && decoded.Data["aiHandled"] == true
	}), map[string]string{
		jetstream.HeaderEventType:      model.DomainEventCallCompleted,
		jetstream.HeaderOrganizationID: "org-1",
		jetstream.HeaderAggregateID:    "call-1",
	}).Return(nil).Once()

	require.NoError(t, publisher.Publish(context.Background(), event))
	client.AssertExpectations(t)
}

func TestDomainEventPublisher_PublishError(t *testing.T) {
	client := new(jsmock.ClientMock)
	publisher := jetstream.NewDomainEventPublisher(client, "v1.domain")

	client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("nats: timeout")).Once()

	err := publisher.Publish(context.Background(), newCallCompleted())
	assert.ErrorIs(t, err, apperrors.ErrNATS)
	assert.False(t, apperrors.IsFatal(err))
}

func TestDomainEventPublisher_Unmarshalable(t *testing.T) {
	client := new(jsmock.ClientMock)
	publisher := jetstream.NewDomainEventPublisher(client, "v1.domain")
	event := newCallCompleted()
	event.Data["bad"] = make(chan int)

	err := publisher.Publish(context.Background(), event)
	assert.True(t, apperrors.IsFatal(err))
	client.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDomainStreamConfig(t *testing.T) {
	cfg := jetstream.DomainStreamConfig("voice_domain_events", "v1.domain", 7*24*time.Hour)

	assert.Equal(t, "voice_domain_events", cfg.Name)
	assert.Equal(t, []string{"v1.domain.>"}, cfg.Subjects)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)
}
