package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate         = "leads.repository.create"
	opGetByID        = "leads.repository.get_by_id"
	opListByOwner    = "leads.repository.list_by_owner"
	opTransition     = "leads.repository.transition"
	opReopen         = "leads.repository.reopen"
	opMarkConverted  = "leads.repository.mark_converted"
	opGetActivity    = "leads.repository.get_activity"
	opListActivities = "leads.repository.list_activities"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// ErrStaleStatus is returned when a guarded status update matched no row,
// meaning the lead moved (or was converted) since the caller read it.
var ErrStaleStatus = errors.New("lead status changed concurrently")

const (
	// ActivityPending marks the one open follow-up activity of a lead.
	ActivityPending = "pending"
	// ActivityCompleted marks activities invalidated by a later transition.
	ActivityCompleted = "completed"
)

type Lead struct {
	ID                uuid.UUID
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Company           string
	Source            string
	Priority          string
	Budget            float64
	Status            string
	AssignedTo        uuid.UUID
	ExpectedCloseDate *time.Time
	Converted         bool
	ConvertedDate     *time.Time
	ClientID          *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Activity struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Title       string
	DueAt       time.Time
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type CreateLeadParams struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Company           string
	Source            string
	Priority          string
	Budget            float64
	Status            string
	AssignedTo        uuid.UUID
	ExpectedCloseDate *time.Time
}

type TransitionParams struct {
	LeadID     uuid.UUID
	FromStatus string
	ToStatus   string
	ChangedBy  uuid.UUID
	// NewActivity, when set, becomes the lead's single pending activity.
	NewActivityTitle string
	NewActivityDueAt time.Time
	HasNewActivity   bool
}

type ReopenParams struct {
	LeadID     uuid.UUID
	FromStatus string
	ToStatus   string
	ChangedBy  uuid.UUID
	Reason     string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, first_name, last_name, email, phone, company, source, priority,
	budget, status, assigned_to, expected_close_date, converted, converted_date, client_id,
	created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Company, &l.Source,
		&l.Priority, &l.Budget, &l.Status, &l.AssignedTo, &l.ExpectedCloseDate,
		&l.Converted, &l.ConvertedDate, &l.ClientID, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *Repository) Create(ctx context.Context, p CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads
		(first_name, last_name, email, phone, company, source, priority, budget, status, assigned_to, expected_close_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+leadColumns,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Company, p.Source, p.Priority,
		p.Budget, p.Status, p.AssignedTo, p.ExpectedCloseDate,
	))
	if err != nil {
		return Lead{}, apperr.Internal(fmt.Sprintf("create lead failed: %v", err)).WithOp(opCreate)
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, apperr.Internal(fmt.Sprintf("get lead failed: %v", err)).WithOp(opGetByID)
	}
	return lead, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE assigned_to = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list leads query failed: %v", err)).WithOp(opListByOwner)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan lead failed: %v", scanErr)).WithOp(opListByOwner)
		}
		leads = append(leads, lead)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate leads failed: %v", rowsErr)).WithOp(opListByOwner)
	}

	return leads, nil
}

// TransitionStatus applies a validated status change in one transaction:
// the status write is guarded by the expected current status, the pending
// activity (if any) is completed, the next activity is inserted, and a
// status history row is appended. At most one pending activity per lead
// holds throughout.
func (r *Repository) TransitionStatus(ctx context.Context, p TransitionParams) (Lead, *Activity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, nil, apperr.Internal(fmt.Sprintf("begin transition failed: %v", err)).WithOp(opTransition)
	}
	defer tx.Rollback(ctx)

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3 AND converted = FALSE
		RETURNING `+leadColumns,
		p.LeadID, p.ToStatus, p.FromStatus,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, nil, ErrStaleStatus
		}
		return Lead{}, nil, apperr.Internal(fmt.Sprintf("transition status failed: %v", err)).WithOp(opTransition)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE lead_activities
		SET status = $2, completed_at = now()
		WHERE lead_id = $1 AND status = $3
	`, p.LeadID, ActivityCompleted, ActivityPending); err != nil {
		return Lead{}, nil, apperr.Internal(fmt.Sprintf("complete pending activity failed: %v", err)).WithOp(opTransition)
	}

	var activity *Activity
	if p.HasNewActivity {
		var a Activity
		err := tx.QueryRow(ctx, `
			INSERT INTO lead_activities (lead_id, title, due_at, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, lead_id, title, due_at, status, created_at, completed_at
		`, p.LeadID, p.NewActivityTitle, p.NewActivityDueAt, ActivityPending).Scan(
			&a.ID, &a.LeadID, &a.Title, &a.DueAt, &a.Status, &a.CreatedAt, &a.CompletedAt,
		)
		if err != nil {
			return Lead{}, nil, apperr.Internal(fmt.Sprintf("create activity failed: %v", err)).WithOp(opTransition)
		}
		activity = &a
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status, changed_by)
		VALUES ($1, $2, $3, $4)
	`, p.LeadID, p.FromStatus, p.ToStatus, p.ChangedBy); err != nil {
		return Lead{}, nil, apperr.Internal(fmt.Sprintf("append status history failed: %v", err)).WithOp(opTransition)
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, nil, apperr.Internal(fmt.Sprintf("commit transition failed: %v", err)).WithOp(opTransition)
	}

	return lead, activity, nil
}

// Reopen moves a terminal, unconverted lead back into the pipeline and
// records the override with its reason in the status history.
func (r *Repository) Reopen(ctx context.Context, p ReopenParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, apperr.Internal(fmt.Sprintf("begin reopen failed: %v", err)).WithOp(opReopen)
	}
	defer tx.Rollback(ctx)

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3 AND converted = FALSE
		RETURNING `+leadColumns,
		p.LeadID, p.ToStatus, p.FromStatus,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrStaleStatus
		}
		return Lead{}, apperr.Internal(fmt.Sprintf("reopen lead failed: %v", err)).WithOp(opReopen)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status, changed_by, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, p.LeadID, p.FromStatus, p.ToStatus, p.ChangedBy, p.Reason); err != nil {
		return Lead{}, apperr.Internal(fmt.Sprintf("append reopen history failed: %v", err)).WithOp(opReopen)
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, apperr.Internal(fmt.Sprintf("commit reopen failed: %v", err)).WithOp(opReopen)
	}

	return lead, nil
}

// MarkConverted is idempotent: re-marking an already converted lead with the
// same client is a no-op success, so a saga retry can always run this step.
func (r *Repository) MarkConverted(ctx context.Context, leadID, clientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET converted = TRUE,
		    converted_date = COALESCE(converted_date, now()),
		    client_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, leadID, clientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark lead converted failed: %v", err)).WithOp(opMarkConverted)
	}
	return nil
}

func (r *Repository) GetActivity(ctx context.Context, id uuid.UUID) (Activity, error) {
	var a Activity
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, title, due_at, status, created_at, completed_at
		FROM lead_activities
		WHERE id = $1
	`, id).Scan(&a.ID, &a.LeadID, &a.Title, &a.DueAt, &a.Status, &a.CreatedAt, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrNotFound
		}
		return Activity{}, apperr.Internal(fmt.Sprintf("get activity failed: %v", err)).WithOp(opGetActivity)
	}
	return a, nil
}

func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, title, due_at, status, created_at, completed_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list activities query failed: %v", err)).WithOp(opListActivities)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if scanErr := rows.Scan(&a.ID, &a.LeadID, &a.Title, &a.DueAt, &a.Status, &a.CreatedAt, &a.CompletedAt); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan activity failed: %v", scanErr)).WithOp(opListActivities)
		}
		activities = append(activities, a)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate activities failed: %v", rowsErr)).WithOp(opListActivities)
	}

	return activities, nil
}
