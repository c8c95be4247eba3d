package models

import "time"

// NotificationStatus tracks delivery state of a guardian notification.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// Notification is a persisted guardian notification created at fan-out time.
// Actual transport (SMS, push, email) is handled by an external gateway; this
// service records the row and hands it to the dispatch queue.
type Notification struct {
	ID            string             `db:"id" json:"id"`
	CampaignID    string             `db:"campaign_id" json:"campaign_id"`
	StudentID     string             `db:"student_id" json:"student_id"`
	GuardianName  string             `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string             `db:"guardian_phone" json:"guardian_phone"`
	Title         string             `db:"title" json:"title"`
	Body          string             `db:"body" json:"body"`
	Status        NotificationStatus `db:"status" json:"status"`
	SentAt        *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}
