package utils

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func domainStream() nats.StreamConfig {
	return nats.StreamConfig{
		Name:       "voice_domain_events",
		Subjects:   []string{"v1.domain.>"},
		Retention:  nats.LimitsPolicy,
		MaxMsgs:    -1,
		MaxAge:     7 * 24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
}

func TestStreamConfigEqual(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*nats.StreamConfig)
		expected bool
	}{
		{name: "identical", mutate: func(*nats.StreamConfig) {}, expected: true},
		{name: "unmanaged field ignored", mutate: func(c *nats.StreamConfig) { c.Replicas = 3 }, expected: true},
		{name: "extra subject", mutate: func(c *nats.StreamConfig) { c.Subjects = append(c.Subjects, "v2.domain.>") }, expected: false},
		{name: "renamed subject", mutate: func(c *nats.StreamConfig) { c.Subjects = []string{"v1.events.>"} }, expected: false},
		{name: "name", mutate: func(c *nats.StreamConfig) { c.Name = "other" }, expected: false},
		{name: "retention", mutate: func(c *nats.StreamConfig) { c.Retention = nats.InterestPolicy }, expected: false},
		{name: "max messages", mutate: func(c *nats.StreamConfig) { c.MaxMsgs = 1000 }, expected: false},
		{name: "max age", mutate: func(c *nats.StreamConfig) { c.MaxAge = time.Hour }, expected: false},
		{name: "storage", mutate: func(c *nats.StreamConfig) { c.Storage = nats.MemoryStorage }, expected: false},
		{name: "duplicate window", mutate: func(c *nats.StreamConfig) { c.Duplicates = time.Minute }, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			current := domainStream()
			tc.mutate(&current)
			assert.Equal(t, tc.expected, StreamConfigEqual(domainStream(), current))
		})
	}
}
