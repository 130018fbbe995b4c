// Package projects manages project records created by lead conversion.
// Project status is advanced by delivery surfaces outside this core; the
// payment follow-up timestamp is owned by the follow-up workflow.
package projects

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
	opCreate       = "projects.repository.create"
	opGetByID      = "projects.repository.get_by_id"
	opGetByLeadID  = "projects.repository.get_by_lead_id"
	opListByClient = "projects.repository.list_by_client"
	opUpdateStatus = "projects.repository.update_status"
	opMarkFollowUp = "projects.repository.mark_follow_up"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project not found")

// ErrCooldownActive is returned by TryMarkFollowUp when the last follow-up is
// still within the cooldown window.
var ErrCooldownActive = errors.New("payment follow-up cooldown active")

const (
	StatusNotStarted = "not-started"
	StatusActive     = "active"
	StatusCompleted  = "completed"
)

type Project struct {
	ID                  uuid.UUID
	Title               string
	Type                string
	Description         string
	StartDate           time.Time
	Duration            string
	EndDate             *time.Time
	Budget              float64
	ClientID            uuid.UUID
	LeadID              uuid.UUID
	Status              string
	PaymentStatus       string
	LastPaymentFollowUp *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateParams struct {
	Title       string
	Type        string
	Description string
	StartDate   time.Time
	Duration    string
	EndDate     *time.Time
	Budget      float64
	ClientID    uuid.UUID
	LeadID      uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, title, type, description, start_date, duration, end_date, budget,
	client_id, lead_id, status, payment_status, last_payment_follow_up, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Type, &p.Description, &p.StartDate, &p.Duration, &p.EndDate,
		&p.Budget, &p.ClientID, &p.LeadID, &p.Status, &p.PaymentStatus,
		&p.LastPaymentFollowUp, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `
		INSERT INTO projects (title, type, description, start_date, duration, end_date, budget, client_id, lead_id, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+projectColumns,
		p.Title, p.Type, p.Description, p.StartDate, p.Duration, p.EndDate, p.Budget,
		p.ClientID, p.LeadID, StatusNotStarted, "not_paid",
	))
	if err != nil {
		return Project{}, apperr.Internal(fmt.Sprintf("create project failed: %v", err)).WithOp(opCreate)
	}
	return project, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, apperr.Internal(fmt.Sprintf("get project failed: %v", err)).WithOp(opGetByID)
	}
	return project, nil
}

// GetByLeadID looks up the project created for a lead. The conversion saga
// uses it to detect work committed by an earlier, partially failed attempt.
func (r *Repository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE lead_id = $1`, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, apperr.Internal(fmt.Sprintf("get project by lead failed: %v", err)).WithOp(opGetByLeadID)
	}
	return project, nil
}

func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list projects query failed: %v", err)).WithOp(opListByClient)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		project, scanErr := scanProject(rows)
		if scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan project failed: %v", scanErr)).WithOp(opListByClient)
		}
		projects = append(projects, project)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate projects failed: %v", rowsErr)).WithOp(opListByClient)
	}

	return projects, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `
		UPDATE projects SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns,
		id, status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, apperr.Internal(fmt.Sprintf("update project status failed: %v", err)).WithOp(opUpdateStatus)
	}
	return project, nil
}

// TryMarkFollowUp atomically claims the payment follow-up slot. The cooldown
// check and the timestamp write are a single conditional UPDATE, so two
// concurrent callers reading the same stale timestamp cannot both pass: the
// row guard admits exactly one. Returns ErrCooldownActive when the window has
// not elapsed.
func (r *Repository) TryMarkFollowUp(ctx context.Context, id uuid.UUID, cooldown time.Duration) (Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `
		UPDATE projects
		SET last_payment_follow_up = now(), updated_at = now()
		WHERE id = $1
		  AND (last_payment_follow_up IS NULL OR last_payment_follow_up <= now() - make_interval(secs => $2))
		RETURNING `+projectColumns,
		id, cooldown.Seconds(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row missing or guard failed; disambiguate for the caller.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return Project{}, getErr
			}
			return Project{}, ErrCooldownActive
		}
		return Project{}, apperr.Internal(fmt.Sprintf("mark follow-up failed: %v", err)).WithOp(opMarkFollowUp)
	}
	return project, nil
}
