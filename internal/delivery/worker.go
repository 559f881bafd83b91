package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

type NotificationArgs struct {
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	JobID          uuid.UUID `json:"job_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ActionRequired bool      `json:"action_required"`
}

func (NotificationArgs) Kind() string { return "deliver_notification" }

// DeliveryStore is the contract the worker needs to stamp delivered notifications.
type DeliveryStore interface {
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
}

// NotificationWorker pushes notifications to a webhook so clients don't poll.
// With no webhook configured it only stamps delivery.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationArgs]
	store      DeliveryStore
	webhookURL string
	client     *resty.Client
	log        *slog.Logger
}

func NewNotificationWorker(store DeliveryStore, webhookURL string, log *slog.Logger) *NotificationWorker {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationWorker{
		store:      store,
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(10 * time.Second),
		log:        log,
	}
}

func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	return w.deliver(ctx, job.Args)
}

func (w *NotificationWorker) deliver(ctx context.Context, args NotificationArgs) error {
	if w.webhookURL != "" {
		resp, err := w.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(args).
			Post(w.webhookURL)
		if err != nil {
			// returned so river retries with backoff
			return fmt.Errorf("network error calling notification webhook: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("notification webhook returned status %d", resp.StatusCode())
		}
	}

	if err := w.store.MarkDelivered(ctx, args.NotificationID, time.Now()); err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	w.log.Info("notification delivered", "notification_id", args.NotificationID, "user_id", args.UserID, "type", args.Type)
	return nil
}
