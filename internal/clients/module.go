package clients

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "salesdesk_backend/internal/http"
	"salesdesk_backend/platform/validator"
)

// Module is the clients bounded context implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	h := NewHandler(repo, val)

	return &Module{handler: h, repo: repo}
}

func (m *Module) Name() string {
	return "clients"
}

// Repository returns the client repository for collaborating modules.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts client routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/clients")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
