package conversion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesdesk_backend/platform/apperr"
)

const (
	opEnsure        = "conversion.repository.ensure"
	opGet           = "conversion.repository.get"
	opSetAccount    = "conversion.repository.set_account"
	opSetClient     = "conversion.repository.set_client"
	opSetProject    = "conversion.repository.set_project"
	opMarkCompleted = "conversion.repository.mark_completed"
)

// State is the persisted progress marker for one lead's conversion. Each step
// records its created entity id here; a retry resumes at the first nil column.
type State struct {
	LeadID    uuid.UUID
	AccountID *uuid.UUID
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanState(row pgx.Row) (State, error) {
	var s State
	err := row.Scan(&s.LeadID, &s.AccountID, &s.ClientID, &s.ProjectID, &s.Completed, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Ensure returns the saga state for the lead, creating an empty row on first use.
func (r *Repository) Ensure(ctx context.Context, leadID uuid.UUID) (State, error) {
	s, err := scanState(r.pool.QueryRow(ctx, `
		INSERT INTO conversion_states (lead_id)
		VALUES ($1)
		ON CONFLICT (lead_id) DO UPDATE SET updated_at = now()
		RETURNING lead_id, account_id, client_id, project_id, completed, created_at, updated_at
	`, leadID))
	if err != nil {
		return State{}, apperr.Wrap(apperr.KindInternal, "failed to ensure conversion state", err).WithOp(opEnsure)
	}
	return s, nil
}

// Get returns the saga state for the lead, or pgx.ErrNoRows wrapped as not found.
func (r *Repository) Get(ctx context.Context, leadID uuid.UUID) (State, error) {
	s, err := scanState(r.pool.QueryRow(ctx, `
		SELECT lead_id, account_id, client_id, project_id, completed, created_at, updated_at
		FROM conversion_states
		WHERE lead_id = $1
	`, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, apperr.NotFound("conversion state not found").WithOp(opGet)
		}
		return State{}, apperr.Wrap(apperr.KindInternal, "failed to get conversion state", err).WithOp(opGet)
	}
	return s, nil
}

func (r *Repository) setColumn(ctx context.Context, op, column string, leadID, entityID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversion_states
		SET `+column+` = $2, updated_at = now()
		WHERE lead_id = $1
	`, leadID, entityID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record conversion step", err).WithOp(op)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("conversion state not found").WithOp(op)
	}
	return nil
}

func (r *Repository) SetAccountID(ctx context.Context, leadID, accountID uuid.UUID) error {
	return r.setColumn(ctx, opSetAccount, "account_id", leadID, accountID)
}

func (r *Repository) SetClientID(ctx context.Context, leadID, clientID uuid.UUID) error {
	return r.setColumn(ctx, opSetClient, "client_id", leadID, clientID)
}

func (r *Repository) SetProjectID(ctx context.Context, leadID, projectID uuid.UUID) error {
	return r.setColumn(ctx, opSetProject, "project_id", leadID, projectID)
}

func (r *Repository) MarkCompleted(ctx context.Context, leadID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversion_states
		SET completed = TRUE, updated_at = now()
		WHERE lead_id = $1
	`, leadID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to complete conversion state", err).WithOp(opMarkCompleted)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("conversion state not found").WithOp(opMarkCompleted)
	}
	return nil
}
