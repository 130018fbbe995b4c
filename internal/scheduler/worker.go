package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesdesk_backend/internal/config"
	leadsrepo "salesdesk_backend/internal/leads/repository"
	"salesdesk_backend/internal/notification"
	"salesdesk_backend/platform/logger"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	leads    *leadsrepo.Repository
	notifier *notification.Publisher
	log      *logger.Logger
}

func NewWorker(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.AsynqConcurrency
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		leads:    leadsrepo.New(pool),
		notifier: notification.NewPublisher(notification.NewRepository(pool), nil),
		log:      log,
	}

	mux.HandleFunc(TaskActivityReminder, w.handleActivityReminder)

	return w, nil
}

// handleActivityReminder notifies the lead owner that a follow-up activity is
// due. Activities completed or superseded since enqueue are silently dropped.
func (w *Worker) handleActivityReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseActivityReminderPayload(task)
	if err != nil {
		return err
	}

	activityID, err := uuid.Parse(payload.ActivityID)
	if err != nil {
		return err
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return err
	}

	activity, err := w.leads.GetActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return nil
		}
		return err
	}
	if activity.Status != leadsrepo.ActivityPending {
		return nil
	}

	_, err = w.notifier.Publish(ctx, "activity.due",
		fmt.Sprintf("Follow-up due: %s", activity.Title),
		&leadID, []uuid.UUID{ownerID})
	return err
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
