package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesdesk_backend/platform/apperr"
)

const (
	opCreate = "followup.repository.create"
	opList   = "followup.repository.list_by_project"
)

const (
	RecordStatusSent = "sent"
)

// Record is one entry in a project's payment follow-up audit trail. Append
// only; the trail is never rewritten.
type Record struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"projectId"`
	InitiatedBy uuid.UUID `json:"initiatedBy"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateParams struct {
	ProjectID   uuid.UUID
	InitiatedBy uuid.UUID
	Status      string
	Message     string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.ProjectID, &rec.InitiatedBy, &rec.Status, &rec.Message, &rec.CreatedAt)
	return rec, err
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `
		INSERT INTO payment_followups (project_id, initiated_by, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, initiated_by, status, message, created_at
	`, p.ProjectID, p.InitiatedBy, p.Status, p.Message))
	if err != nil {
		return Record{}, apperr.Internal(fmt.Sprintf("create follow-up record failed: %v", err)).WithOp(opCreate)
	}
	return rec, nil
}

func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, initiated_by, status, message, created_at
		FROM payment_followups
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list follow-up records failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan follow-up record failed: %v", scanErr)).WithOp(opList)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate follow-up records failed: %v", err)).WithOp(opList)
	}
	return records, nil
}
