package notification

import (
	"context"

	"github.com/google/uuid"
)

// RecordStore is the slice of the repository the publisher needs.
type RecordStore interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
}

// Publisher fans one event out into independent notification records, one per
// recipient, and pushes each onto the live stream. There is no deduplication:
// publishing the same logical event twice produces two records per recipient.
type Publisher struct {
	repo   RecordStore
	stream *Stream
}

func NewPublisher(repo RecordStore, stream *Stream) *Publisher {
	return &Publisher{repo: repo, stream: stream}
}

// Publish writes one notification per recipient. Recipients already written
// stay written if a later insert fails; the error reports the first failure.
func (p *Publisher) Publish(ctx context.Context, eventKind, message string, relatedEntityID *uuid.UUID, recipients []uuid.UUID) ([]Notification, error) {
	created := make([]Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		n, err := p.repo.Create(ctx, CreateParams{
			RecipientID:     recipientID,
			Message:         message,
			Type:            eventKind,
			RelatedEntityID: relatedEntityID,
		})
		if err != nil {
			return created, err
		}
		created = append(created, n)

		if p.stream != nil {
			p.stream.Push(n)
		}
	}
	return created, nil
}
