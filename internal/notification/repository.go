// Package notification provides per-recipient notification records and a
// live stream for dashboards. Records are append-only: repeated publication
// of the same logical event produces repeated notifications.
package notification

import (
	"context"
	"fmt"
	"time"

	"salesdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate        = "notification.repository.create"
	opList          = "notification.repository.list"
	opCountUnread   = "notification.repository.count_unread"
	opMarkRead      = "notification.repository.mark_read"
	opMarkAllRead   = "notification.repository.mark_all_read"
	opMarkAllViewed = "notification.repository.mark_all_viewed"

	errRecipientRequired = "recipientId is required"
)

type Notification struct {
	ID              uuid.UUID  `json:"id"`
	RecipientID     uuid.UUID  `json:"recipientId"`
	Message         string     `json:"message"`
	Type            string     `json:"type"`
	RelatedEntityID *uuid.UUID `json:"relatedEntityId,omitempty"`
	Read            bool       `json:"read"`
	Viewed          bool       `json:"viewed"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type CreateParams struct {
	RecipientID     uuid.UUID
	Message         string
	Type            string
	RelatedEntityID *uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.RecipientID == uuid.Nil {
		return Notification{}, apperr.Validation(errRecipientRequired).WithOp(opCreate)
	}
	if p.Message == "" || p.Type == "" {
		return Notification{}, apperr.Validation("message and type are required").WithOp(opCreate)
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient_id, message, type, related_entity_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, recipient_id, message, type, related_entity_id, read, viewed, created_at
	`, p.RecipientID, p.Message, p.Type, p.RelatedEntityID).Scan(
		&n.ID, &n.RecipientID, &n.Message, &n.Type, &n.RelatedEntityID, &n.Read, &n.Viewed, &n.CreatedAt,
	)
	if err != nil {
		return Notification{}, apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}

	return n, nil
}

func (r *Repository) List(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]Notification, error) {
	if recipientID == uuid.Nil {
		return nil, apperr.Validation(errRecipientRequired).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_id, message, type, related_entity_id, read, viewed, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, recipientID, limit, offset)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list notifications query failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if scanErr := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Type, &n.RelatedEntityID, &n.Read, &n.Viewed, &n.CreatedAt); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan notification failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", rowsErr)).WithOp(opList)
	}

	return items, nil
}

func (r *Repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	if recipientID == uuid.Nil {
		return 0, apperr.Validation(errRecipientRequired).WithOp(opCountUnread)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND read = FALSE
	`, recipientID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread notifications failed: %v", err)).WithOp(opCountUnread)
	}

	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil || notificationID == uuid.Nil {
		return apperr.Validation("recipientId and notificationId are required").WithOp(opMarkRead)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`, notificationID, recipientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification read failed: %v", err)).WithOp(opMarkRead)
	}

	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return apperr.Validation(errRecipientRequired).WithOp(opMarkAllRead)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE recipient_id = $1 AND read = FALSE
	`, recipientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark all notifications read failed: %v", err)).WithOp(opMarkAllRead)
	}

	return nil
}

// MarkAllViewed clears the badge: viewed is set on everything the recipient
// has been shown, independently of the per-item read flag.
func (r *Repository) MarkAllViewed(ctx context.Context, recipientID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return apperr.Validation(errRecipientRequired).WithOp(opMarkAllViewed)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET viewed = TRUE
		WHERE recipient_id = $1 AND viewed = FALSE
	`, recipientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark all notifications viewed failed: %v", err)).WithOp(opMarkAllViewed)
	}

	return nil
}
