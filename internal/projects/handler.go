package projects

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesdesk_backend/platform/httpkit"
	"salesdesk_backend/platform/validator"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=not-started active completed"`
}

type ProjectResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Title               string     `json:"title"`
	Type                string     `json:"type"`
	Description         string     `json:"description"`
	StartDate           time.Time  `json:"startDate"`
	Duration            string     `json:"duration"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	Budget              float64    `json:"budget"`
	ClientID            uuid.UUID  `json:"clientId"`
	LeadID              uuid.UUID  `json:"leadId"`
	Status              string     `json:"status"`
	PaymentStatus       string     `json:"paymentStatus"`
	LastPaymentFollowUp *time.Time `json:"lastPaymentFollowUp,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toProjectResponse(p Project) ProjectResponse {
	return ProjectResponse{
		ID:                  p.ID,
		Title:               p.Title,
		Type:                p.Type,
		Description:         p.Description,
		StartDate:           p.StartDate,
		Duration:            p.Duration,
		EndDate:             p.EndDate,
		Budget:              p.Budget,
		ClientID:            p.ClientID,
		LeadID:              p.LeadID,
		Status:              p.Status,
		PaymentStatus:       p.PaymentStatus,
		LastPaymentFollowUp: p.LastPaymentFollowUp,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type Handler struct {
	repo *Repository
	val  *validator.Validator
}

func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListByClient)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id", nil)
		return
	}

	project, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, toProjectResponse(project))
}

func (h *Handler) ListByClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Query("clientId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "clientId query parameter required", nil)
		return
	}

	list, err := h.repo.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]ProjectResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProjectResponse(p))
	}
	httpkit.OK(c, out)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id", nil)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	project, err := h.repo.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, toProjectResponse(project))
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	httpkit.HandleError(c, err)
}
