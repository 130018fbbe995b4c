package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"salesdesk_backend/internal/clients"
	"salesdesk_backend/internal/events"
	"salesdesk_backend/internal/notification"
	"salesdesk_backend/internal/projects"
	"salesdesk_backend/platform/logger"
)

const testCooldown = 12 * time.Hour

type fakeProjectStore struct {
	project projects.Project
}

func (f *fakeProjectStore) GetByID(_ context.Context, id uuid.UUID) (projects.Project, error) {
	if id != f.project.ID {
		return projects.Project{}, projects.ErrNotFound
	}
	return f.project, nil
}

func (f *fakeProjectStore) TryMarkFollowUp(_ context.Context, id uuid.UUID, cooldown time.Duration) (projects.Project, error) {
	if id != f.project.ID {
		return projects.Project{}, projects.ErrNotFound
	}
	last := f.project.LastPaymentFollowUp
	if last != nil && time.Since(*last) < cooldown {
		return projects.Project{}, projects.ErrCooldownActive
	}
	now := time.Now()
	f.project.LastPaymentFollowUp = &now
	return f.project, nil
}

type fakeClientStore struct {
	client clients.Client
}

func (f *fakeClientStore) GetByID(_ context.Context, id uuid.UUID) (clients.Client, error) {
	if id != f.client.ID {
		return clients.Client{}, clients.ErrNotFound
	}
	return f.client, nil
}

type fakeRecordStore struct {
	records []Record
}

func (f *fakeRecordStore) Create(_ context.Context, p CreateParams) (Record, error) {
	rec := Record{
		ID:          uuid.New(),
		ProjectID:   p.ProjectID,
		InitiatedBy: p.InitiatedBy,
		Status:      p.Status,
		Message:     p.Message,
		CreatedAt:   time.Now(),
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeRecordStore) ListByProject(_ context.Context, projectID uuid.UUID) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range f.records {
		if rec.ProjectID == projectID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	recipients []uuid.UUID
}

func (f *fakeNotifier) Publish(_ context.Context, _, _ string, _ *uuid.UUID, recipients []uuid.UUID) ([]notification.Notification, error) {
	f.recipients = append(f.recipients, recipients...)
	return nil, nil
}

type fakeMailer struct {
	sent chan string
}

func (f *fakeMailer) SendPaymentReminderEmail(_ context.Context, to, _, _ string, _ float64, _ *time.Time) error {
	f.sent <- to
	return nil
}

type fixture struct {
	svc      *Service
	projects *fakeProjectStore
	clients  *fakeClientStore
	records  *fakeRecordStore
	notifier *fakeNotifier
	mailer   *fakeMailer
}

func newFixture(lastFollowUp *time.Time) *fixture {
	log := logger.New("test")
	accountID := uuid.New()
	client := clients.Client{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      "Jamie Ortega",
		Email:     "jamie@example.com",
	}
	project := projects.Project{
		ID:                  uuid.New(),
		Title:               "Website redesign",
		Budget:              5000,
		ClientID:            client.ID,
		LastPaymentFollowUp: lastFollowUp,
	}

	f := &fixture{
		projects: &fakeProjectStore{project: project},
		clients:  &fakeClientStore{client: client},
		records:  &fakeRecordStore{},
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{sent: make(chan string, 1)},
	}
	f.svc = NewService(f.projects, f.clients, f.records, f.notifier, f.mailer, events.NewInMemoryBus(log), log, testCooldown)
	return f
}

func hoursAgo(h int) *time.Time {
	t := time.Now().Add(-time.Duration(h) * time.Hour)
	return &t
}

func TestCanFollowUp(t *testing.T) {
	f := newFixture(nil)

	cases := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"never sent", nil, true},
		{"13 hours ago", hoursAgo(13), true},
		{"5 hours ago", hoursAgo(5), false},
		{"exactly at the window", hoursAgo(12), true},
	}
	for _, tc := range cases {
		project := projects.Project{LastPaymentFollowUp: tc.last}
		if got := f.svc.CanFollowUp(project); got != tc.want {
			t.Errorf("%s: CanFollowUp = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSendReminder_AllowedAfterCooldown(t *testing.T) {
	f := newFixture(hoursAgo(13))

	actor := uuid.New()
	record, err := f.svc.SendReminder(context.Background(), f.projects.project.ID, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.InitiatedBy != actor || record.Status != RecordStatusSent {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(f.records.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(f.records.records))
	}
	if f.projects.project.LastPaymentFollowUp == nil || time.Since(*f.projects.project.LastPaymentFollowUp) > time.Minute {
		t.Fatalf("expected follow-up timestamp refreshed")
	}
	if len(f.notifier.recipients) != 1 || f.notifier.recipients[0] != f.clients.client.AccountID {
		t.Fatalf("expected a notification to the client account, got %v", f.notifier.recipients)
	}

	select {
	case to := <-f.mailer.sent:
		if to != f.clients.client.Email {
			t.Fatalf("expected reminder email to %s, got %s", f.clients.client.Email, to)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a reminder email")
	}
}

func TestSendReminder_BlockedDuringCooldown(t *testing.T) {
	f := newFixture(hoursAgo(5))

	_, err := f.svc.SendReminder(context.Background(), f.projects.project.ID, uuid.New())
	if !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}
	if len(f.records.records) != 0 {
		t.Fatalf("blocked reminder must not append an audit record")
	}
	if len(f.notifier.recipients) != 0 {
		t.Fatalf("blocked reminder must not notify anyone")
	}
}

func TestSendReminder_SecondCallBlocked(t *testing.T) {
	f := newFixture(nil)
	projectID := f.projects.project.ID

	if _, err := f.svc.SendReminder(context.Background(), projectID, uuid.New()); err != nil {
		t.Fatalf("first reminder: %v", err)
	}
	_, err := f.svc.SendReminder(context.Background(), projectID, uuid.New())
	if !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("expected second reminder blocked, got %v", err)
	}
	if len(f.records.records) != 1 {
		t.Fatalf("expected exactly one audit record, got %d", len(f.records.records))
	}
	<-f.mailer.sent
}

func TestSendReminder_UnknownProject(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.SendReminder(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestHistory_ReturnsProjectTrail(t *testing.T) {
	f := newFixture(nil)
	projectID := f.projects.project.ID

	if _, err := f.svc.SendReminder(context.Background(), projectID, uuid.New()); err != nil {
		t.Fatalf("send reminder: %v", err)
	}
	<-f.mailer.sent

	records, err := f.svc.History(context.Background(), projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}

	if _, err := f.svc.History(context.Background(), uuid.New()); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound for unknown project, got %v", err)
	}
}
