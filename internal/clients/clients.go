// Package clients manages client profiles. A profile is created exactly once
// per converted lead; payment fields are maintained by downstream billing
// surfaces.
package clients

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
	opCreate        = "clients.repository.create"
	opGetByID       = "clients.repository.get_by_id"
	opGetByLeadID   = "clients.repository.get_by_lead_id"
	opUpdatePayment = "clients.repository.update_payment"
)

// ErrNotFound is returned when a client profile does not exist.
var ErrNotFound = errors.New("client not found")

// Payment status values tracked on a client profile.
const (
	PaymentNotPaid       = "not_paid"
	PaymentPartiallyPaid = "partially_paid"
	PaymentPaid          = "paid"
	PaymentRequested     = "payment_requested"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Client struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	LeadID        uuid.UUID
	Name          string
	Email         string
	Phone         string
	SalesRep      uuid.UUID
	Status        string
	PaymentStatus string
	PaymentMethod string
	PaidAmount    float64
	PaymentProof  []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateParams struct {
	AccountID uuid.UUID
	LeadID    uuid.UUID
	Name      string
	Email     string
	Phone     string
	SalesRep  uuid.UUID
}

type UpdatePaymentParams struct {
	PaymentStatus string
	PaymentMethod *string
	PaidAmount    *float64
	// ProofRefs are appended to the existing payment proof references.
	ProofRefs []string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `id, account_id, lead_id, name, email, phone, sales_rep, status,
	payment_status, payment_method, paid_amount, payment_proof, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.AccountID, &c.LeadID, &c.Name, &c.Email, &c.Phone, &c.SalesRep,
		&c.Status, &c.PaymentStatus, &c.PaymentMethod, &c.PaidAmount, &c.PaymentProof,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Client, error) {
	client, err := scanClient(r.pool.QueryRow(ctx, `
		INSERT INTO clients (account_id, lead_id, name, email, phone, sales_rep, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+clientColumns,
		p.AccountID, p.LeadID, p.Name, p.Email, p.Phone, p.SalesRep, StatusActive, PaymentNotPaid,
	))
	if err != nil {
		return Client{}, apperr.Internal(fmt.Sprintf("create client failed: %v", err)).WithOp(opCreate)
	}
	return client, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	client, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, apperr.Internal(fmt.Sprintf("get client failed: %v", err)).WithOp(opGetByID)
	}
	return client, nil
}

// GetByLeadID looks up the client created for a lead. The conversion saga
// uses it to detect work committed by an earlier, partially failed attempt.
func (r *Repository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (Client, error) {
	client, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE lead_id = $1`, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, apperr.Internal(fmt.Sprintf("get client by lead failed: %v", err)).WithOp(opGetByLeadID)
	}
	return client, nil
}

func (r *Repository) UpdatePayment(ctx context.Context, id uuid.UUID, p UpdatePaymentParams) (Client, error) {
	client, err := scanClient(r.pool.QueryRow(ctx, `
		UPDATE clients
		SET payment_status = $2,
		    payment_method = COALESCE($3, payment_method),
		    paid_amount = COALESCE($4, paid_amount),
		    payment_proof = payment_proof || $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+clientColumns,
		id, p.PaymentStatus, p.PaymentMethod, p.PaidAmount, p.ProofRefs,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, apperr.Internal(fmt.Sprintf("update client payment failed: %v", err)).WithOp(opUpdatePayment)
	}
	return client, nil
}
