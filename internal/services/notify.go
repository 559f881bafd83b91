package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/delivery"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// notifier persists a notification and enqueues its delivery in the caller's tx.
type notifier struct {
	repo    NotificationRepo
	enqueue EnqueueNotificationFunc
	now     func() time.Time
}

func (n notifier) send(ctx context.Context, tx pgx.Tx, note *models.Notification) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = n.now().UTC()
	}
	if err := n.repo.Create(ctx, tx, note); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	if n.enqueue == nil {
		return nil
	}
	args := delivery.NotificationArgs{
		NotificationID: note.ID,
		UserID:         note.UserID,
		JobID:          note.JobID,
		Type:           note.Type,
		Title:          note.Title,
		Message:        note.Message,
		ActionRequired: note.ActionRequired,
	}
	if err := n.enqueue(ctx, tx, args); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}
