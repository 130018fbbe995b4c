// Package conversion turns closed-won leads into client accounts and projects.
package conversion

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"salesdesk_backend/internal/events"
	apphttp "salesdesk_backend/internal/http"
	"salesdesk_backend/platform/logger"
	"salesdesk_backend/platform/validator"
)

// Module is the conversion bounded context implementing http.Module. It mounts
// on the leads route group because conversion is an operation on a lead.
type Module struct {
	handler *Handler
}

// Deps are the collaborating-context dependencies of the conversion saga.
type Deps struct {
	Leads    LeadStore
	Accounts AccountProvisioner
	Clients  ClientStore
	Projects ProjectStore
	Notifier Notifier
	Mailer   WelcomeMailer
	Bus      events.Bus
	Logger   *logger.Logger
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, deps Deps) *Module {
	states := NewRepository(pool)
	svc := NewService(deps.Leads, deps.Accounts, deps.Clients, deps.Projects, states, deps.Notifier, deps.Mailer, deps.Bus, deps.Logger)
	h := NewHandler(svc, val)

	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "conversion"
}

// RegisterRoutes mounts the convert endpoint on the protected leads group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
