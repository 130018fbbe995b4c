package conversion

import (
	"context"
	"time"

	"github.com/google/uuid"

	"salesdesk_backend/internal/accounts"
	"salesdesk_backend/internal/clients"
	"salesdesk_backend/internal/leads/repository"
	"salesdesk_backend/internal/notification"
	"salesdesk_backend/internal/projects"
)

// The orchestrator talks to the other contexts through narrow, locally owned
// interfaces so the saga can be exercised against fakes.

type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	MarkConverted(ctx context.Context, leadID, clientID uuid.UUID) error
}

type AccountProvisioner interface {
	Provision(ctx context.Context, email, name string) (accounts.Account, string, error)
	FindByEmail(ctx context.Context, email string) (accounts.Account, error)
}

type ClientStore interface {
	Create(ctx context.Context, p clients.CreateParams) (clients.Client, error)
	GetByLeadID(ctx context.Context, leadID uuid.UUID) (clients.Client, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p projects.CreateParams) (projects.Project, error)
	GetByLeadID(ctx context.Context, leadID uuid.UUID) (projects.Project, error)
}

type StateStore interface {
	Ensure(ctx context.Context, leadID uuid.UUID) (State, error)
	Get(ctx context.Context, leadID uuid.UUID) (State, error)
	SetAccountID(ctx context.Context, leadID, accountID uuid.UUID) error
	SetClientID(ctx context.Context, leadID, clientID uuid.UUID) error
	SetProjectID(ctx context.Context, leadID, projectID uuid.UUID) error
	MarkCompleted(ctx context.Context, leadID uuid.UUID) error
}

type Notifier interface {
	Publish(ctx context.Context, eventKind, message string, relatedEntityID *uuid.UUID, recipients []uuid.UUID) ([]notification.Notification, error)
}

type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, to, name, tempPassword, projectTitle string) error
}

// Clock lets tests pin "today" for the project start date.
type Clock func() time.Time
