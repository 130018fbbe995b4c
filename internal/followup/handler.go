package followup

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesdesk_backend/platform/httpkit"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/payment-reminder", h.SendReminder)
	rg.GET("/:id/payment-reminders", h.History)
}

func (h *Handler) SendReminder(c *gin.Context) {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id", nil)
		return
	}

	record, err := h.svc.SendReminder(c.Request.Context(), projectID, identity.UserID())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, record)
}

func (h *Handler) History(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id", nil)
		return
	}

	records, err := h.svc.History(c.Request.Context(), projectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, records)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound), errors.Is(err, ErrClientNotFound):
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrCooldownActive):
		httpkit.Error(c, http.StatusTooManyRequests, err.Error(), nil)
	default:
		httpkit.HandleError(c, err)
	}
}
