package service

import (
	"context"
	"errors"
	"time"

	"salesdesk_backend/internal/events"
	"salesdesk_backend/internal/leads/domain"
	"salesdesk_backend/internal/leads/repository"
	"salesdesk_backend/internal/leads/transport"
	"salesdesk_backend/platform/logger"
	"salesdesk_backend/platform/phone"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound      = errors.New("lead not found")
	ErrUnknownStatus     = errors.New("unknown lead status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrLeadConverted     = errors.New("lead is converted and immutable")
	ErrNotTerminal       = errors.New("only closed leads can be reopened")
	ErrStatusConflict    = errors.New("lead status changed concurrently, reload and retry")
)

// ReminderScheduler enqueues a reminder job for a follow-up activity.
// Implemented by the asynq scheduler client; a nil scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleActivityReminder(ctx context.Context, activityID, leadID, ownerID uuid.UUID, runAt time.Time) error
}

type Service struct {
	repo      *repository.Repository
	bus       events.Bus
	reminders ReminderScheduler
	log       *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, reminders ReminderScheduler, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, reminders: reminders, log: log}
}

func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, actorID uuid.UUID) (transport.LeadResponse, error) {
	assignee := actorID
	if req.AssigneeID != nil {
		assignee = *req.AssigneeID
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             phone.NormalizeE164(req.Phone),
		Company:           req.Company,
		Source:            req.Source,
		Priority:          priority,
		Budget:            req.Budget.Float64(),
		Status:            string(domain.StatusNew),
		AssignedTo:        assignee,
		ExpectedCloseDate: req.ExpectedCloseDate,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return transport.ToLeadResponse(lead), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]transport.LeadResponse, error) {
	leads, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, transport.ToLeadResponse(lead))
	}
	return responses, nil
}

// PipelineSummary aggregates the owner's current lead set.
func (s *Service) PipelineSummary(ctx context.Context, ownerID uuid.UUID) (domain.PipelineSummary, error) {
	leads, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return domain.PipelineSummary{}, err
	}

	figures := make([]domain.LeadFigures, 0, len(leads))
	for _, lead := range leads {
		figures = append(figures, domain.LeadFigures{
			Budget: lead.Budget,
			Status: domain.Status(lead.Status),
		})
	}

	return domain.Aggregate(figures), nil
}

// TransitionStatus moves a lead to a new pipeline status. The previous
// pending activity is completed and the status-prescribed follow-up activity
// is created in the same transaction; a reminder job is enqueued for it.
func (s *Service) TransitionStatus(ctx context.Context, leadID uuid.UUID, rawStatus string, actorID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	if lead.Converted {
		return transport.LeadResponse{}, ErrLeadConverted
	}

	newStatus := domain.NormalizeStatus(rawStatus)
	if !domain.IsKnownStatus(newStatus) {
		return transport.LeadResponse{}, ErrUnknownStatus
	}

	current := domain.Status(lead.Status)
	if !domain.CanTransition(current, newStatus) {
		return transport.LeadResponse{}, ErrInvalidTransition
	}

	now := time.Now()
	params := repository.TransitionParams{
		LeadID:     leadID,
		FromStatus: string(current),
		ToStatus:   string(newStatus),
		ChangedBy:  actorID,
	}
	if activity, ok := domain.ActivityForStatus(newStatus, lead.ExpectedCloseDate, now); ok {
		params.HasNewActivity = true
		params.NewActivityTitle = activity.Title
		params.NewActivityDueAt = activity.DueAt
	}

	updated, activity, err := s.repo.TransitionStatus(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return transport.LeadResponse{}, ErrStatusConflict
		}
		return transport.LeadResponse{}, err
	}

	event := events.LeadStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		OwnerID:    updated.AssignedTo,
		ActorID:    actorID,
		FromStatus: string(current),
		ToStatus:   string(newStatus),
	}
	if activity != nil {
		event.ActivityID = &activity.ID
		event.ActivityAt = &activity.DueAt
	}
	s.bus.Publish(ctx, event)

	s.scheduleReminder(ctx, activity, leadID, updated.AssignedTo)

	return transport.ToLeadResponse(updated), nil
}

// scheduleReminder enqueues the follow-up reminder job. Best effort: a failed
// enqueue is logged, never surfaced to the caller.
func (s *Service) scheduleReminder(ctx context.Context, activity *repository.Activity, leadID, ownerID uuid.UUID) {
	if activity == nil || s.reminders == nil {
		return
	}
	if err := s.reminders.ScheduleActivityReminder(ctx, activity.ID, leadID, ownerID, activity.DueAt); err != nil {
		s.log.WorkflowError("lead_status", "schedule-reminder", leadID.String(), err)
	}
}

// Reopen is the explicit, audited override that brings a terminal lead back
// into negotiation. Plain status writes out of a terminal status are rejected
// by the transition table; this is the only path out.
func (s *Service) Reopen(ctx context.Context, leadID uuid.UUID, reason string, actorID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, ErrLeadNotFound
		}
		return transport.LeadResponse{}, err
	}

	if lead.Converted {
		return transport.LeadResponse{}, ErrLeadConverted
	}
	if !domain.IsTerminal(domain.Status(lead.Status)) {
		return transport.LeadResponse{}, ErrNotTerminal
	}

	updated, err := s.repo.Reopen(ctx, repository.ReopenParams{
		LeadID:     leadID,
		FromStatus: lead.Status,
		ToStatus:   string(domain.StatusNegotiation),
		ChangedBy:  actorID,
		Reason:     reason,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return transport.LeadResponse{}, ErrStatusConflict
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadReopened{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		OwnerID:   updated.AssignedTo,
		ActorID:   actorID,
		Reason:    reason,
	})

	return transport.ToLeadResponse(updated), nil
}

func (s *Service) ListActivities(ctx context.Context, leadID uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}

	activities, err := s.repo.ListActivities(ctx, leadID)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		responses = append(responses, transport.ToActivityResponse(a))
	}
	return responses, nil
}
