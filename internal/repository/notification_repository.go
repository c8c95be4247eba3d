package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uks-adp-api/internal/models"
)

// NotificationRepository persists guardian notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a notification in PENDING state.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, campaign_id, student_id, guardian_name, guardian_phone, title, body, status, sent_at, created_at)
        VALUES (:id, :campaign_id, :student_id, :guardian_name, :guardian_phone, :title, :body, :status, :sent_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkSent records successful handoff to the delivery gateway.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	const query = `UPDATE notifications SET status = $2, sent_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationSent, sentAt); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure after retries are exhausted.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationFailed); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// ListByStudent returns the notifications sent for one student.
func (r *NotificationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Notification, error) {
	const query = `SELECT id, campaign_id, student_id, guardian_name, guardian_phone, title, body, status, sent_at, created_at
        FROM notifications WHERE student_id = $1 ORDER BY created_at DESC`
	var rows []models.Notification
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list notifications by student: %w", err)
	}
	return rows, nil
}
