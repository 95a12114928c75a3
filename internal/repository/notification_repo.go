package repository

import (
	"context"
	"fmt"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

type NotificationRepository struct {
	db database.Caller
}

func NewNotificationRepository(db database.Caller) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) GetForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	return callList[models.Notification](ctx, r.db, "notifications", "spNotifications_GetByUser", database.P("userId", userID))
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID int64) error {
	_, err := r.db.Call(ctx, "spNotifications_MarkRead",
		database.P("userId", userID),
		database.P("notificationId", notificationID),
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := r.db.Call(ctx, "spNotifications_MarkAllRead", database.P("userId", userID)); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, userID, notificationID int64) error {
	_, err := r.db.Call(ctx, "spNotifications_Delete",
		database.P("userId", userID),
		database.P("notificationId", notificationID),
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
