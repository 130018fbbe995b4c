package clients

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salesdesk_backend/platform/httpkit"
	"salesdesk_backend/platform/validator"
)

type UpdatePaymentRequest struct {
	PaymentStatus string   `json:"paymentStatus" validate:"required,oneof=not_paid partially_paid paid payment_requested"`
	PaymentMethod *string  `json:"paymentMethod" validate:"omitempty,max=100"`
	PaidAmount    *float64 `json:"paidAmount" validate:"omitempty,gte=0"`
	ProofRefs     []string `json:"proofRefs" validate:"omitempty,dive,max=500"`
}

type ClientResponse struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"accountId"`
	LeadID        uuid.UUID `json:"leadId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	SalesRep      uuid.UUID `json:"salesRep"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	PaymentMethod string    `json:"paymentMethod"`
	PaidAmount    float64   `json:"paidAmount"`
	PaymentProof  []string  `json:"paymentProof"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toClientResponse(c Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		AccountID:     c.AccountID,
		LeadID:        c.LeadID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		SalesRep:      c.SalesRep,
		Status:        c.Status,
		PaymentStatus: c.PaymentStatus,
		PaymentMethod: c.PaymentMethod,
		PaidAmount:    c.PaidAmount,
		PaymentProof:  c.PaymentProof,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
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
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/payment", h.UpdatePayment)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client id", nil)
		return
	}

	client, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, toClientResponse(client))
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client id", nil)
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	client, err := h.repo.UpdatePayment(c.Request.Context(), id, UpdatePaymentParams{
		PaymentStatus: req.PaymentStatus,
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		ProofRefs:     req.ProofRefs,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.OK(c, toClientResponse(client))
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	httpkit.HandleError(c, err)
}
