package conversion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesdesk_backend/internal/accounts"
	"salesdesk_backend/internal/clients"
	"salesdesk_backend/internal/duration"
	"salesdesk_backend/internal/events"
	"salesdesk_backend/internal/leads/domain"
	leadsrepo "salesdesk_backend/internal/leads/repository"
	"salesdesk_backend/internal/projects"
	"salesdesk_backend/platform/logger"
)

var ErrLeadNotFound = errors.New("lead not found")

// ErrNotClosedWon is returned when the lead has not reached closed-won.
var ErrNotClosedWon = errors.New("lead is not closed-won")

// ErrAlreadyConverted is returned when the lead was already converted.
var ErrAlreadyConverted = errors.New("lead already converted")

// ErrDuplicateEmail is returned when the lead's email belongs to an account
// this conversion did not create.
var ErrDuplicateEmail = errors.New("email already registered")

const workflowName = "lead_conversion"

// ConvertParams carries the rep-supplied project details for a conversion.
type ConvertParams struct {
	ProjectTitle string
	ProjectType  string
	Description  string
	Duration     string
}

// Result reports the entities a completed conversion points at.
type Result struct {
	Lead    leadsrepo.Lead
	Client  clients.Client
	Project projects.Project
}

// Service drives the lead-to-client conversion saga. Steps run in a fixed
// order outside any shared transaction; every created entity id is recorded
// in the state row before the next step starts, so a retry after a partial
// failure resumes instead of duplicating records.
type Service struct {
	leads    LeadStore
	accounts AccountProvisioner
	clients  ClientStore
	projects ProjectStore
	states   StateStore
	notifier Notifier
	mailer   WelcomeMailer
	bus      events.Bus
	log      *logger.Logger
	now      Clock
}

func NewService(
	leads LeadStore,
	accounts AccountProvisioner,
	clients ClientStore,
	projects ProjectStore,
	states StateStore,
	notifier Notifier,
	mailer WelcomeMailer,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		leads:    leads,
		accounts: accounts,
		clients:  clients,
		projects: projects,
		states:   states,
		notifier: notifier,
		mailer:   mailer,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests only.
func (s *Service) WithClock(now Clock) *Service {
	s.now = now
	return s
}

// Convert turns a closed-won lead into a client account, a client profile and
// a project, then marks the lead converted. Safe to retry: completed steps are
// skipped based on the persisted state row.
func (s *Service) Convert(ctx context.Context, leadID uuid.UUID, p ConvertParams, actorID uuid.UUID) (Result, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return Result{}, ErrLeadNotFound
		}
		return Result{}, err
	}

	if lead.Converted {
		return s.finishInterrupted(ctx, lead)
	}
	if domain.NormalizeStatus(lead.Status) != domain.StatusClosedWon {
		return Result{}, ErrNotClosedWon
	}

	state, err := s.states.Ensure(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	account, tempPassword, err := s.provisionStep(ctx, lead, state)
	if err != nil {
		return Result{}, err
	}

	client, err := s.clientStep(ctx, lead, state, account)
	if err != nil {
		return Result{}, err
	}

	project, err := s.projectStep(ctx, lead, state, client, p)
	if err != nil {
		return Result{}, err
	}

	if err := s.leads.MarkConverted(ctx, leadID, client.ID); err != nil {
		s.log.WorkflowError(workflowName, "mark_converted", leadID.String(), err)
		return Result{}, err
	}
	if err := s.states.MarkCompleted(ctx, leadID); err != nil {
		s.log.WorkflowError(workflowName, "mark_completed", leadID.String(), err)
		return Result{}, err
	}

	lead, err = s.leads.GetByID(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	s.notifyAndWelcome(ctx, lead, account, client, project, tempPassword)

	s.bus.Publish(ctx, events.LeadConverted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		ClientID:  client.ID,
		ProjectID: project.ID,
		OwnerID:   lead.AssignedTo,
		ActorID:   actorID,
	})

	return Result{Lead: lead, Client: client, Project: project}, nil
}

// finishInterrupted handles a retry on a lead that is already converted. When
// a prior run crashed after marking the lead but before closing out the state
// row, the retry closes it and returns the existing entities. Any other
// converted lead is a genuine conflict.
func (s *Service) finishInterrupted(ctx context.Context, lead leadsrepo.Lead) (Result, error) {
	state, err := s.states.Get(ctx, lead.ID)
	if err != nil || state.Completed || state.ClientID == nil || state.ProjectID == nil {
		return Result{}, ErrAlreadyConverted
	}

	if err := s.states.MarkCompleted(ctx, lead.ID); err != nil {
		s.log.WorkflowError(workflowName, "mark_completed", lead.ID.String(), err)
		return Result{}, err
	}

	client, err := s.clients.GetByLeadID(ctx, lead.ID)
	if err != nil {
		return Result{}, err
	}
	project, err := s.projects.GetByLeadID(ctx, lead.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Lead: lead, Client: client, Project: project}, nil
}

// provisionStep creates the client login account, or adopts the one a prior
// attempt of this same saga created. A duplicate email that this saga cannot
// claim aborts the conversion before any further writes.
func (s *Service) provisionStep(ctx context.Context, lead leadsrepo.Lead, state State) (accounts.Account, string, error) {
	if state.AccountID != nil {
		account, err := s.accounts.FindByEmail(ctx, lead.Email)
		if err != nil {
			s.log.WorkflowError(workflowName, "provision_account", lead.ID.String(), err)
			return accounts.Account{}, "", err
		}
		return account, "", nil
	}

	account, tempPassword, err := s.accounts.Provision(ctx, lead.Email, leadFullName(lead))
	if err != nil {
		if !errors.Is(err, accounts.ErrDuplicateEmail) {
			s.log.WorkflowError(workflowName, "provision_account", lead.ID.String(), err)
			return accounts.Account{}, "", err
		}
		// The address is taken. It is only ours if a client profile for this
		// lead already points at it (a crash between steps on a prior run).
		existing, findErr := s.accounts.FindByEmail(ctx, lead.Email)
		if findErr != nil {
			return accounts.Account{}, "", findErr
		}
		client, clientErr := s.clients.GetByLeadID(ctx, lead.ID)
		if clientErr != nil || client.AccountID != existing.ID {
			return accounts.Account{}, "", ErrDuplicateEmail
		}
		account, tempPassword = existing, ""
	}

	if err := s.states.SetAccountID(ctx, lead.ID, account.ID); err != nil {
		return accounts.Account{}, "", err
	}
	return account, tempPassword, nil
}

func (s *Service) clientStep(ctx context.Context, lead leadsrepo.Lead, state State, account accounts.Account) (clients.Client, error) {
	if state.ClientID != nil {
		client, err := s.clients.GetByLeadID(ctx, lead.ID)
		if err != nil {
			s.log.WorkflowError(workflowName, "create_client", lead.ID.String(), err)
			return clients.Client{}, err
		}
		return client, nil
	}

	client, err := s.clients.Create(ctx, clients.CreateParams{
		AccountID: account.ID,
		LeadID:    lead.ID,
		Name:      leadFullName(lead),
		Email:     lead.Email,
		Phone:     lead.Phone,
		SalesRep:  lead.AssignedTo,
	})
	if err != nil {
		s.log.WorkflowError(workflowName, "create_client", lead.ID.String(), err)
		return clients.Client{}, err
	}
	if err := s.states.SetClientID(ctx, lead.ID, client.ID); err != nil {
		return clients.Client{}, err
	}
	return client, nil
}

func (s *Service) projectStep(ctx context.Context, lead leadsrepo.Lead, state State, client clients.Client, p ConvertParams) (projects.Project, error) {
	if state.ProjectID != nil {
		project, err := s.projects.GetByLeadID(ctx, lead.ID)
		if err != nil {
			s.log.WorkflowError(workflowName, "create_project", lead.ID.String(), err)
			return projects.Project{}, err
		}
		return project, nil
	}

	startDate := s.now()
	if lead.ExpectedCloseDate != nil {
		startDate = *lead.ExpectedCloseDate
	}
	var endDate *time.Time
	if end, ok := duration.Resolve(startDate, p.Duration); ok {
		endDate = &end
	}

	project, err := s.projects.Create(ctx, projects.CreateParams{
		Title:       p.ProjectTitle,
		Type:        p.ProjectType,
		Description: p.Description,
		StartDate:   startDate,
		Duration:    p.Duration,
		EndDate:     endDate,
		Budget:      lead.Budget,
		ClientID:    client.ID,
		LeadID:      lead.ID,
	})
	if err != nil {
		s.log.WorkflowError(workflowName, "create_project", lead.ID.String(), err)
		return projects.Project{}, err
	}
	if err := s.states.SetProjectID(ctx, lead.ID, project.ID); err != nil {
		return projects.Project{}, err
	}
	return project, nil
}

// notifyAndWelcome dispatches the post-conversion side effects. All of them
// are best effort: the lead is already converted, so failures are logged and
// swallowed.
func (s *Service) notifyAndWelcome(ctx context.Context, lead leadsrepo.Lead, account accounts.Account, client clients.Client, project projects.Project, tempPassword string) {
	leadID := lead.ID
	if _, err := s.notifier.Publish(ctx, "lead.converted",
		"Lead "+leadFullName(lead)+" converted to client", &leadID,
		[]uuid.UUID{lead.AssignedTo}); err != nil {
		s.log.WorkflowError(workflowName, "notify_rep", lead.ID.String(), err)
	}

	projectID := project.ID
	if _, err := s.notifier.Publish(ctx, "client.welcome",
		"Welcome aboard! Your project \""+project.Title+"\" has been created", &projectID,
		[]uuid.UUID{account.ID}); err != nil {
		s.log.WorkflowError(workflowName, "notify_client", lead.ID.String(), err)
	}

	// The welcome email carries the one-time password, so it only goes out on
	// the run that actually provisioned the account.
	if tempPassword == "" {
		return
	}
	mailCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.mailer.SendWelcomeEmail(mailCtx, client.Email, client.Name, tempPassword, project.Title); err != nil {
			s.log.EmailSendFailed("welcome", client.Email, err)
		}
	}()
}

func leadFullName(lead leadsrepo.Lead) string {
	return strings.TrimSpace(lead.FirstName + " " + lead.LastName)
}
