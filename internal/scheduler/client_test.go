package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"salesdesk_backend/internal/config"
)

func TestScheduleActivityReminder_EnqueuesScheduledTask(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client, err := NewClient(&config.Config{
		RedisURL:   "redis://" + mr.Addr(),
		AsynqQueue: "workflows",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	runAt := time.Now().Add(3 * 24 * time.Hour)
	if err := client.ScheduleActivityReminder(context.Background(), uuid.New(), uuid.New(), uuid.New(), runAt); err != nil {
		t.Fatalf("schedule reminder: %v", err)
	}

	var scheduled bool
	for _, key := range mr.Keys() {
		if strings.Contains(key, "workflows") && strings.Contains(key, "scheduled") {
			scheduled = true
		}
	}
	if !scheduled {
		t.Fatalf("expected a scheduled task in queue, keys: %v", mr.Keys())
	}
}

func TestScheduleActivityReminder_NilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.ScheduleActivityReminder(context.Background(), uuid.New(), uuid.New(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("nil client must be a no-op, got %v", err)
	}
}

func TestActivityReminderPayloadRoundTrip(t *testing.T) {
	payload := ActivityReminderPayload{
		ActivityID: uuid.NewString(),
		LeadID:     uuid.NewString(),
		OwnerID:    uuid.NewString(),
	}

	task, err := NewActivityReminderTask(payload)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskActivityReminder {
		t.Fatalf("expected task type %q, got %q", TaskActivityReminder, task.Type())
	}

	parsed, err := ParseActivityReminderPayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if parsed != payload {
		t.Fatalf("expected %+v, got %+v", payload, parsed)
	}
}

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(&config.Config{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
}
