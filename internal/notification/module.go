package notification

import (
	apphttp "salesdesk_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler   *Handler
	publisher *Publisher
	stream    *Stream
}

// NewModule creates and initializes the notification module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := NewRepository(pool)
	stream := NewStream()
	publisher := NewPublisher(repo, stream)
	h := NewHandler(repo, stream)

	return &Module{
		handler:   h,
		publisher: publisher,
		stream:    stream,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Publisher returns the fan-out publisher for workflow modules.
func (m *Module) Publisher() *Publisher {
	return m.publisher
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
