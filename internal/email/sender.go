// Package email delivers transactional mail for the sales workflows.
package email

import (
	"context"
	"time"
)

type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name, tempPassword, projectTitle string) error
	SendPaymentReminderEmail(ctx context.Context, toEmail, name, projectTitle string, amount float64, dueDate *time.Time) error
}

// NoopSender is used when outbound email is disabled.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(ctx context.Context, toEmail, name, tempPassword, projectTitle string) error {
	return nil
}

func (NoopSender) SendPaymentReminderEmail(ctx context.Context, toEmail, name, projectTitle string, amount float64, dueDate *time.Time) error {
	return nil
}
