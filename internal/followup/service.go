package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salesdesk_backend/internal/clients"
	"salesdesk_backend/internal/events"
	"salesdesk_backend/internal/notification"
	"salesdesk_backend/internal/projects"
	"salesdesk_backend/platform/logger"
)

var ErrProjectNotFound = errors.New("project not found")

var ErrClientNotFound = errors.New("client not found")

// ErrCooldownActive is returned when a reminder was already sent within the
// cooldown window.
var ErrCooldownActive = errors.New("payment follow-up cooldown active")

type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (projects.Project, error)
	TryMarkFollowUp(ctx context.Context, id uuid.UUID, cooldown time.Duration) (projects.Project, error)
}

type ClientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (clients.Client, error)
}

type RecordStore interface {
	Create(ctx context.Context, p CreateParams) (Record, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Record, error)
}

type Notifier interface {
	Publish(ctx context.Context, eventKind, message string, relatedEntityID *uuid.UUID, recipients []uuid.UUID) ([]notification.Notification, error)
}

type ReminderMailer interface {
	SendPaymentReminderEmail(ctx context.Context, to, name, projectTitle string, amount float64, dueDate *time.Time) error
}

// Service dispatches cooldown-gated payment reminders. The authoritative gate
// is the conditional write in ProjectStore.TryMarkFollowUp; CanFollowUp is a
// pure advisory read for UI state.
type Service struct {
	projects ProjectStore
	clients  ClientStore
	records  RecordStore
	notifier Notifier
	mailer   ReminderMailer
	bus      events.Bus
	log      *logger.Logger
	cooldown time.Duration
	now      func() time.Time
}

func NewService(
	projects ProjectStore,
	clients ClientStore,
	records RecordStore,
	notifier Notifier,
	mailer ReminderMailer,
	bus events.Bus,
	log *logger.Logger,
	cooldown time.Duration,
) *Service {
	return &Service{
		projects: projects,
		clients:  clients,
		records:  records,
		notifier: notifier,
		mailer:   mailer,
		bus:      bus,
		log:      log,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// CanFollowUp reports whether the cooldown window has elapsed for the project.
// Purely a function of the persisted timestamp; racing callers are resolved by
// the conditional write in SendReminder, never by this check.
func (s *Service) CanFollowUp(project projects.Project) bool {
	if project.LastPaymentFollowUp == nil {
		return true
	}
	return s.now().Sub(*project.LastPaymentFollowUp) >= s.cooldown
}

// SendReminder claims the project's follow-up slot, appends an audit record,
// notifies the client in-app and fires the reminder email. The email is best
// effort; a delivery failure is logged and does not fail the dispatch.
func (s *Service) SendReminder(ctx context.Context, projectID, actorID uuid.UUID) (Record, error) {
	project, err := s.projects.TryMarkFollowUp(ctx, projectID, s.cooldown)
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrNotFound):
			return Record{}, ErrProjectNotFound
		case errors.Is(err, projects.ErrCooldownActive):
			return Record{}, ErrCooldownActive
		}
		return Record{}, err
	}

	client, err := s.clients.GetByID(ctx, project.ClientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return Record{}, ErrClientNotFound
		}
		return Record{}, err
	}

	message := fmt.Sprintf("Payment reminder sent for project %q", project.Title)
	record, err := s.records.Create(ctx, CreateParams{
		ProjectID:   project.ID,
		InitiatedBy: actorID,
		Status:      RecordStatusSent,
		Message:     message,
	})
	if err != nil {
		return Record{}, err
	}

	recordProjectID := project.ID
	if _, err := s.notifier.Publish(ctx, "payment.reminder",
		fmt.Sprintf("A payment for project %q is outstanding", project.Title),
		&recordProjectID, []uuid.UUID{client.AccountID}); err != nil {
		s.log.WorkflowError("payment_followup", "notify_client", project.ID.String(), err)
	}

	mailCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.mailer.SendPaymentReminderEmail(mailCtx, client.Email, client.Name, project.Title, project.Budget, project.EndDate); err != nil {
			s.log.EmailSendFailed("payment_reminder", client.Email, err)
		}
	}()

	s.bus.Publish(ctx, events.PaymentFollowUpSent{
		BaseEvent: events.NewBaseEvent(),
		ProjectID: project.ID,
		ClientID:  client.ID,
		ActorID:   actorID,
	})

	return record, nil
}

// History returns the project's follow-up audit trail, newest first.
func (s *Service) History(ctx context.Context, projectID uuid.UUID) ([]Record, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, projects.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return s.records.ListByProject(ctx, projectID)
}
