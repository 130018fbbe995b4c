package conversion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"salesdesk_backend/internal/accounts"
	"salesdesk_backend/internal/clients"
	"salesdesk_backend/internal/events"
	leadsrepo "salesdesk_backend/internal/leads/repository"
	"salesdesk_backend/internal/notification"
	"salesdesk_backend/internal/projects"
	"salesdesk_backend/platform/logger"
)

type fakeLeadStore struct {
	lead leadsrepo.Lead
}

func (f *fakeLeadStore) GetByID(_ context.Context, id uuid.UUID) (leadsrepo.Lead, error) {
	if id != f.lead.ID {
		return leadsrepo.Lead{}, leadsrepo.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeLeadStore) MarkConverted(_ context.Context, leadID, clientID uuid.UUID) error {
	if leadID != f.lead.ID {
		return leadsrepo.ErrNotFound
	}
	now := time.Now()
	f.lead.Converted = true
	f.lead.ClientID = &clientID
	if f.lead.ConvertedDate == nil {
		f.lead.ConvertedDate = &now
	}
	return nil
}

type fakeAccounts struct {
	byEmail    map[string]accounts.Account
	provisions int
}

func (f *fakeAccounts) Provision(_ context.Context, email, name string) (accounts.Account, string, error) {
	if _, exists := f.byEmail[email]; exists {
		return accounts.Account{}, "", accounts.ErrDuplicateEmail
	}
	f.provisions++
	account := accounts.Account{ID: uuid.New(), Email: email, Name: name, Role: accounts.RoleClient}
	f.byEmail[email] = account
	return account, "temp-pass-123", nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (accounts.Account, error) {
	account, ok := f.byEmail[email]
	if !ok {
		return accounts.Account{}, accounts.ErrNotFound
	}
	return account, nil
}

type fakeClients struct {
	byLead  map[uuid.UUID]clients.Client
	creates int
}

func (f *fakeClients) Create(_ context.Context, p clients.CreateParams) (clients.Client, error) {
	f.creates++
	client := clients.Client{
		ID:        uuid.New(),
		AccountID: p.AccountID,
		LeadID:    p.LeadID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		SalesRep:  p.SalesRep,
	}
	f.byLead[p.LeadID] = client
	return client, nil
}

func (f *fakeClients) GetByLeadID(_ context.Context, leadID uuid.UUID) (clients.Client, error) {
	client, ok := f.byLead[leadID]
	if !ok {
		return clients.Client{}, clients.ErrNotFound
	}
	return client, nil
}

type fakeProjects struct {
	byLead  map[uuid.UUID]projects.Project
	creates int
}

func (f *fakeProjects) Create(_ context.Context, p projects.CreateParams) (projects.Project, error) {
	f.creates++
	project := projects.Project{
		ID:        uuid.New(),
		Title:     p.Title,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Budget:    p.Budget,
		ClientID:  p.ClientID,
		LeadID:    p.LeadID,
	}
	f.byLead[p.LeadID] = project
	return project, nil
}

func (f *fakeProjects) GetByLeadID(_ context.Context, leadID uuid.UUID) (projects.Project, error) {
	project, ok := f.byLead[leadID]
	if !ok {
		return projects.Project{}, projects.ErrNotFound
	}
	return project, nil
}

type fakeStates struct {
	byLead map[uuid.UUID]*State
}

func (f *fakeStates) Ensure(_ context.Context, leadID uuid.UUID) (State, error) {
	if s, ok := f.byLead[leadID]; ok {
		return *s, nil
	}
	f.byLead[leadID] = &State{LeadID: leadID}
	return State{LeadID: leadID}, nil
}

func (f *fakeStates) Get(_ context.Context, leadID uuid.UUID) (State, error) {
	s, ok := f.byLead[leadID]
	if !ok {
		return State{}, errors.New("conversion state not found")
	}
	return *s, nil
}

func (f *fakeStates) SetAccountID(_ context.Context, leadID, id uuid.UUID) error {
	f.byLead[leadID].AccountID = &id
	return nil
}

func (f *fakeStates) SetClientID(_ context.Context, leadID, id uuid.UUID) error {
	f.byLead[leadID].ClientID = &id
	return nil
}

func (f *fakeStates) SetProjectID(_ context.Context, leadID, id uuid.UUID) error {
	f.byLead[leadID].ProjectID = &id
	return nil
}

func (f *fakeStates) MarkCompleted(_ context.Context, leadID uuid.UUID) error {
	f.byLead[leadID].Completed = true
	return nil
}

type fakeNotifier struct {
	published []string
}

func (f *fakeNotifier) Publish(_ context.Context, eventKind, _ string, _ *uuid.UUID, recipients []uuid.UUID) ([]notification.Notification, error) {
	for range recipients {
		f.published = append(f.published, eventKind)
	}
	return nil, nil
}

type fakeMailer struct {
	sent chan string
}

func (f *fakeMailer) SendWelcomeEmail(_ context.Context, to, _, _, _ string) error {
	f.sent <- to
	return nil
}

type fixture struct {
	svc      *Service
	leads    *fakeLeadStore
	accounts *fakeAccounts
	clients  *fakeClients
	projects *fakeProjects
	states   *fakeStates
	notifier *fakeNotifier
	mailer   *fakeMailer
}

func newFixture(lead leadsrepo.Lead) *fixture {
	log := logger.New("test")
	f := &fixture{
		leads:    &fakeLeadStore{lead: lead},
		accounts: &fakeAccounts{byEmail: make(map[string]accounts.Account)},
		clients:  &fakeClients{byLead: make(map[uuid.UUID]clients.Client)},
		projects: &fakeProjects{byLead: make(map[uuid.UUID]projects.Project)},
		states:   &fakeStates{byLead: make(map[uuid.UUID]*State)},
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{sent: make(chan string, 1)},
	}
	f.svc = NewService(f.leads, f.accounts, f.clients, f.projects, f.states, f.notifier, f.mailer, events.NewInMemoryBus(log), log)
	return f
}

func closedWonLead() leadsrepo.Lead {
	return leadsrepo.Lead{
		ID:         uuid.New(),
		FirstName:  "Jamie",
		LastName:   "Ortega",
		Email:      "jamie@example.com",
		Phone:      "+14155550100",
		Budget:     5000,
		Status:     "closed-won",
		AssignedTo: uuid.New(),
	}
}

func TestConvert_HappyPath(t *testing.T) {
	lead := closedWonLead()
	f := newFixture(lead)

	result, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{
		ProjectTitle: "Website redesign",
		Duration:     "2 months",
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Lead.Converted {
		t.Fatalf("expected lead marked converted")
	}
	if result.Lead.ClientID == nil || *result.Lead.ClientID != result.Client.ID {
		t.Fatalf("expected lead to reference the new client")
	}
	if result.Project.Budget != lead.Budget {
		t.Fatalf("expected project budget %v, got %v", lead.Budget, result.Project.Budget)
	}
	if result.Project.EndDate == nil {
		t.Fatalf("expected end date resolved from duration")
	}
	if f.accounts.provisions != 1 || f.clients.creates != 1 || f.projects.creates != 1 {
		t.Fatalf("expected one account, client and project, got %d/%d/%d",
			f.accounts.provisions, f.clients.creates, f.projects.creates)
	}
	if !f.states.byLead[lead.ID].Completed {
		t.Fatalf("expected saga state marked completed")
	}
	if len(f.notifier.published) != 2 {
		t.Fatalf("expected rep and client notifications, got %v", f.notifier.published)
	}

	select {
	case to := <-f.mailer.sent:
		if to != lead.Email {
			t.Fatalf("expected welcome email to %s, got %s", lead.Email, to)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a welcome email")
	}
}

func TestConvert_RetryResumesAtFirstIncompleteStep(t *testing.T) {
	lead := closedWonLead()
	f := newFixture(lead)

	// A prior run provisioned the account and created the client, then died
	// before the project step.
	account, _, err := f.accounts.Provision(context.Background(), lead.Email, "Jamie Ortega")
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	client, err := f.clients.Create(context.Background(), clients.CreateParams{
		AccountID: account.ID, LeadID: lead.ID, Name: "Jamie Ortega", Email: lead.Email,
	})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	f.states.byLead[lead.ID] = &State{LeadID: lead.ID, AccountID: &account.ID, ClientID: &client.ID}

	result, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "Retry"}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.accounts.provisions != 1 {
		t.Fatalf("retry must not provision a second account, got %d", f.accounts.provisions)
	}
	if f.clients.creates != 1 {
		t.Fatalf("retry must not create a second client, got %d", f.clients.creates)
	}
	if f.projects.creates != 1 {
		t.Fatalf("expected exactly one project after retry, got %d", f.projects.creates)
	}
	if result.Client.ID != client.ID {
		t.Fatalf("expected retry to reuse client %s, got %s", client.ID, result.Client.ID)
	}
	if !f.leads.lead.Converted {
		t.Fatalf("expected lead marked converted after retry")
	}

	// The adopted run never sees the one-time password, so no welcome email.
	select {
	case to := <-f.mailer.sent:
		t.Fatalf("unexpected welcome email to %s on retry", to)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConvert_RejectsNonClosedWon(t *testing.T) {
	lead := closedWonLead()
	lead.Status = "negotiation"
	f := newFixture(lead)

	_, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "X"}, uuid.New())
	if !errors.Is(err, ErrNotClosedWon) {
		t.Fatalf("expected ErrNotClosedWon, got %v", err)
	}
	if f.accounts.provisions != 0 || f.clients.creates != 0 || f.projects.creates != 0 {
		t.Fatalf("precondition failure must not write anything")
	}
}

func TestConvert_RetryAfterCrashBeforeCompletionSucceeds(t *testing.T) {
	lead := closedWonLead()
	f := newFixture(lead)

	// A prior run got all the way through marking the lead converted but died
	// before closing out the state row.
	account, _, err := f.accounts.Provision(context.Background(), lead.Email, "Jamie Ortega")
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	client, err := f.clients.Create(context.Background(), clients.CreateParams{
		AccountID: account.ID, LeadID: lead.ID, Name: "Jamie Ortega", Email: lead.Email,
	})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	project, err := f.projects.Create(context.Background(), projects.CreateParams{
		Title: "Website redesign", ClientID: client.ID, LeadID: lead.ID,
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	f.states.byLead[lead.ID] = &State{
		LeadID: lead.ID, AccountID: &account.ID, ClientID: &client.ID, ProjectID: &project.ID,
	}
	if err := f.leads.MarkConverted(context.Background(), lead.ID, client.ID); err != nil {
		t.Fatalf("seed converted lead: %v", err)
	}

	result, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "Retry"}, uuid.New())
	if err != nil {
		t.Fatalf("expected interrupted conversion to finish, got %v", err)
	}

	if result.Client.ID != client.ID || result.Project.ID != project.ID {
		t.Fatalf("expected the existing entities back, got client %s project %s", result.Client.ID, result.Project.ID)
	}
	if !f.states.byLead[lead.ID].Completed {
		t.Fatalf("expected saga state marked completed")
	}
	if f.accounts.provisions != 1 || f.clients.creates != 1 || f.projects.creates != 1 {
		t.Fatalf("retry must not create new entities, got %d/%d/%d",
			f.accounts.provisions, f.clients.creates, f.projects.creates)
	}

	// A further retry, now fully completed, is a plain conflict.
	if _, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "Again"}, uuid.New()); !errors.Is(err, ErrAlreadyConverted) {
		t.Fatalf("expected ErrAlreadyConverted after completion, got %v", err)
	}
}

func TestConvert_RejectsAlreadyConverted(t *testing.T) {
	lead := closedWonLead()
	lead.Converted = true
	f := newFixture(lead)

	_, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "X"}, uuid.New())
	if !errors.Is(err, ErrAlreadyConverted) {
		t.Fatalf("expected ErrAlreadyConverted, got %v", err)
	}
}

func TestConvert_DuplicateEmailAborts(t *testing.T) {
	lead := closedWonLead()
	f := newFixture(lead)

	// Someone unrelated already registered the address.
	f.accounts.byEmail[lead.Email] = accounts.Account{ID: uuid.New(), Email: lead.Email}

	_, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "X"}, uuid.New())
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if f.clients.creates != 0 || f.projects.creates != 0 {
		t.Fatalf("duplicate email must abort before creating client or project")
	}
	if f.leads.lead.Converted {
		t.Fatalf("lead must not be marked converted")
	}
}

func TestConvert_SynonymStatusNormalized(t *testing.T) {
	lead := closedWonLead()
	lead.Status = "Closed-Won"
	f := newFixture(lead)

	if _, err := f.svc.Convert(context.Background(), lead.ID, ConvertParams{ProjectTitle: "X"}, uuid.New()); err != nil {
		t.Fatalf("unexpected error for differently cased status: %v", err)
	}
}
