package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type stubSchedulerConfig struct {
	redisURL string
}

func (s stubSchedulerConfig) GetRedisURL() string                   { return s.redisURL }
func (s stubSchedulerConfig) GetRedisTLSInsecure() bool             { return false }
func (s stubSchedulerConfig) GetAsynqQueueName() string             { return "rfv" }
func (s stubSchedulerConfig) GetAsynqConcurrency() int              { return 2 }
func (s stubSchedulerConfig) GetRecalculateInterval() time.Duration { return 24 * time.Hour }
func (s stubSchedulerConfig) GetAttributionInterval() time.Duration { return time.Hour }

func TestPassPayloadRoundTrip(t *testing.T) {
	requested := time.Date(2026, 8, 1, 5, 0, 0, 0, time.UTC)
	task, err := NewRecalculateTask(PassPayload{RequestedAt: requested, TriggeredBy: "manual"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskRecalculate {
		t.Errorf("task type = %q, want %q", task.Type(), TaskRecalculate)
	}

	payload, err := ParsePassPayload(task)
	if err != nil {
		t.Fatal(err)
	}
	if !payload.RequestedAt.Equal(requested) || payload.TriggeredBy != "manual" {
		t.Errorf("payload = %+v, want original values", payload)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestClientEnqueuesIntoConfiguredQueue(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(stubSchedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	payload := PassPayload{RequestedAt: time.Now().UTC(), TriggeredBy: "test"}
	if err := client.EnqueueRecalculate(context.Background(), payload); err != nil {
		t.Fatal(err)
	}
	if err := client.EnqueueAttributeRevenue(context.Background(), payload); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, key := range mr.Keys() {
		if strings.Contains(key, "rfv") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("no keys for queue rfv, got %v", mr.Keys())
	}
}
