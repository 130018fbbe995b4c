// Package followup dispatches cooldown-gated payment reminders for projects.
package followup

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesdesk_backend/internal/events"
	apphttp "salesdesk_backend/internal/http"
	"salesdesk_backend/platform/logger"
)

// Module is the payment follow-up bounded context implementing http.Module.
type Module struct {
	handler *Handler
}

// Deps are the collaborating-context dependencies of the follow-up workflow.
type Deps struct {
	Projects ProjectStore
	Clients  ClientStore
	Notifier Notifier
	Mailer   ReminderMailer
	Bus      events.Bus
	Logger   *logger.Logger
	Cooldown time.Duration
}

func NewModule(pool *pgxpool.Pool, deps Deps) *Module {
	records := NewRepository(pool)
	svc := NewService(deps.Projects, deps.Clients, records, deps.Notifier, deps.Mailer, deps.Bus, deps.Logger, deps.Cooldown)
	h := NewHandler(svc)

	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "followup"
}

// RegisterRoutes mounts the reminder endpoints on the protected projects group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/projects")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
