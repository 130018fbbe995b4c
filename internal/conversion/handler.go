package conversion

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesdesk_backend/platform/httpkit"
	"salesdesk_backend/platform/validator"
)

// ConvertRequest is the rep-supplied payload for converting a closed-won lead.
type ConvertRequest struct {
	ProjectTitle string `json:"projectTitle" validate:"required,min=2,max=200"`
	ProjectType  string `json:"projectType" validate:"omitempty,max=100"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
	Duration     string `json:"duration" validate:"omitempty,max=50"`
}

// ConvertResponse reports the entities created by the conversion.
type ConvertResponse struct {
	LeadID        uuid.UUID  `json:"leadId"`
	ClientID      uuid.UUID  `json:"clientId"`
	ProjectID     uuid.UUID  `json:"projectId"`
	ProjectTitle  string     `json:"projectTitle"`
	ConvertedDate *time.Time `json:"convertedDate,omitempty"`
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/convert", h.Convert)
}

func (h *Handler) Convert(c *gin.Context) {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.svc.Convert(c.Request.Context(), leadID, ConvertParams{
		ProjectTitle: req.ProjectTitle,
		ProjectType:  req.ProjectType,
		Description:  req.Description,
		Duration:     req.Duration,
	}, identity.UserID())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, ConvertResponse{
		LeadID:        result.Lead.ID,
		ClientID:      result.Client.ID,
		ProjectID:     result.Project.ID,
		ProjectTitle:  result.Project.Title,
		ConvertedDate: result.Lead.ConvertedDate,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrAlreadyConverted), errors.Is(err, ErrDuplicateEmail):
		httpkit.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrNotClosedWon):
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		httpkit.HandleError(c, err)
	}
}
