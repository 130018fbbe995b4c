package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"salesdesk_backend/internal/leads/repository"
	"salesdesk_backend/platform/logger"
)

type stubScheduler struct {
	err   error
	calls int
}

func (s *stubScheduler) ScheduleActivityReminder(ctx context.Context, activityID, leadID, ownerID uuid.UUID, runAt time.Time) error {
	s.calls++
	return s.err
}

func newCapturedLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &logger.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}, &buf
}

func TestScheduleReminder_EnqueueFailureIsLogged(t *testing.T) {
	log, buf := newCapturedLogger()
	scheduler := &stubScheduler{err: errors.New("redis unavailable")}
	svc := New(nil, nil, scheduler, log)

	leadID := uuid.New()
	activity := &repository.Activity{ID: uuid.New(), DueAt: time.Now().Add(24 * time.Hour)}

	svc.scheduleReminder(context.Background(), activity, leadID, uuid.New())

	if scheduler.calls != 1 {
		t.Fatalf("expected one enqueue attempt, got %d", scheduler.calls)
	}
	out := buf.String()
	if !strings.Contains(out, "schedule-reminder") {
		t.Fatalf("expected failure log to name the step, got %q", out)
	}
	if !strings.Contains(out, leadID.String()) {
		t.Fatalf("expected failure log to carry the lead id, got %q", out)
	}
	if !strings.Contains(out, "redis unavailable") {
		t.Fatalf("expected failure log to carry the cause, got %q", out)
	}
}

func TestScheduleReminder_SuccessLogsNothing(t *testing.T) {
	log, buf := newCapturedLogger()
	scheduler := &stubScheduler{}
	svc := New(nil, nil, scheduler, log)

	activity := &repository.Activity{ID: uuid.New(), DueAt: time.Now().Add(24 * time.Hour)}
	svc.scheduleReminder(context.Background(), activity, uuid.New(), uuid.New())

	if scheduler.calls != 1 {
		t.Fatalf("expected one enqueue attempt, got %d", scheduler.calls)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}
}

func TestScheduleReminder_NilSchedulerAndActivityAreNoops(t *testing.T) {
	log, buf := newCapturedLogger()

	svc := New(nil, nil, nil, log)
	svc.scheduleReminder(context.Background(), &repository.Activity{ID: uuid.New()}, uuid.New(), uuid.New())

	scheduler := &stubScheduler{}
	svc = New(nil, nil, scheduler, log)
	svc.scheduleReminder(context.Background(), nil, uuid.New(), uuid.New())

	if scheduler.calls != 0 {
		t.Fatalf("expected no enqueue without an activity, got %d", scheduler.calls)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}
}
