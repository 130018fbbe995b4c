package transport

import (
	"time"

	"salesdesk_backend/internal/leads/domain"
	"salesdesk_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	FirstName         string     `json:"firstName" validate:"required"`
	LastName          string     `json:"lastName" validate:"required"`
	Email             string     `json:"email" validate:"required,email"`
	Phone             string     `json:"phone"`
	Company           string     `json:"company"`
	Source            string     `json:"source"`
	Priority          string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Budget            Amount     `json:"budget"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate"`
	AssigneeID        *uuid.UUID `json:"assigneeId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ReopenRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ActivityResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	DueAt       time.Time  `json:"dueAt"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone,omitempty"`
	Company           string     `json:"company,omitempty"`
	Source            string     `json:"source,omitempty"`
	Priority          string     `json:"priority,omitempty"`
	Budget            float64    `json:"budget"`
	Status            string     `json:"status"`
	Probability       int        `json:"probability"`
	AssignedTo        uuid.UUID  `json:"assignedTo"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Converted         bool       `json:"converted"`
	ConvertedDate     *time.Time `json:"convertedDate,omitempty"`
	ClientID          *uuid.UUID `json:"clientId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                l.ID,
		FirstName:         l.FirstName,
		LastName:          l.LastName,
		Email:             l.Email,
		Phone:             l.Phone,
		Company:           l.Company,
		Source:            l.Source,
		Priority:          l.Priority,
		Budget:            l.Budget,
		Status:            l.Status,
		Probability:       domain.Probability(domain.Status(l.Status)),
		AssignedTo:        l.AssignedTo,
		ExpectedCloseDate: l.ExpectedCloseDate,
		Converted:         l.Converted,
		ConvertedDate:     l.ConvertedDate,
		ClientID:          l.ClientID,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func ToActivityResponse(a repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		Title:       a.Title,
		DueAt:       a.DueAt,
		Status:      a.Status,
		CompletedAt: a.CompletedAt,
	}
}
