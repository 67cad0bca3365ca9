package jetstream

import (
	"context"

	"github.com/nats-io/nats.go"
)

// ClientInterface defines the interface for the JetStream client
// This allows for easy mocking in tests
type ClientInterface interface {
	// SetupStream ensures the stream exists with the given configuration
	SetupStream(ctx context.Context, streamConfig *nats.StreamConfig) error

	// Publish publishes a message and waits for the stream acknowledgement.
	// msgID, when set, lets the stream drop duplicates of a retried publish.
	Publish(ctx context.Context, subject, msgID string, data []byte, headers map[string]string) error

	// IsConnected reports whether the underlying connection is up
	IsConnected() bool

	// Close drains and closes the NATS connection
	Close()
}
