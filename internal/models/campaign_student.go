package models

import (
	"strings"
	"time"
)

// ParticipationStatus tracks a student's response/outcome lifecycle inside a
// campaign. Legal transitions: PENDING -> {APPROVED, REJECTED} (guardian
// response) and APPROVED -> COMPLETED (staff records a result). REJECTED and
// COMPLETED are terminal.
type ParticipationStatus string

const (
	StatusPending   ParticipationStatus = "PENDING"
	StatusApproved  ParticipationStatus = "APPROVED"
	StatusRejected  ParticipationStatus = "REJECTED"
	StatusCompleted ParticipationStatus = "COMPLETED"

	// StatusAgreed is a legacy synonym for APPROVED still present in older
	// rows; it is normalized on read and counted as approved.
	StatusAgreed ParticipationStatus = "AGREED"
)

var participationTransitions = map[ParticipationStatus][]ParticipationStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted},
}

// Normalize upper-cases the raw status and folds AGREED into APPROVED.
func (s ParticipationStatus) Normalize() ParticipationStatus {
	upper := ParticipationStatus(strings.ToUpper(string(s)))
	if upper == StatusAgreed {
		return StatusApproved
	}
	return upper
}

// Valid reports whether the status is one of the known values.
func (s ParticipationStatus) Valid() bool {
	switch s.Normalize() {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from this status.
func (s ParticipationStatus) Terminal() bool {
	norm := s.Normalize()
	return norm == StatusRejected || norm == StatusCompleted
}

// CanTransitionTo is the single place that decides status mutations.
func (s ParticipationStatus) CanTransitionTo(next ParticipationStatus) bool {
	from := s.Normalize()
	to := next.Normalize()
	if from == to {
		return false
	}
	for _, allowed := range participationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CampaignStudent is one student's participation record within a class-campaign.
type CampaignStudent struct {
	ID               string              `db:"id" json:"id"`
	ClassCampaignID  string              `db:"class_campaign_id" json:"class_campaign_id"`
	StudentID        string              `db:"student_id" json:"student_id"`
	Status           ParticipationStatus `db:"status" json:"status"`
	ParentNotes      *string             `db:"parent_notes" json:"parent_notes,omitempty"`
	RejectionReason  *string             `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Result           *string             `db:"result" json:"result,omitempty"`
	Notes            *string             `db:"notes" json:"notes,omitempty"`
	Recommendations  *string             `db:"recommendations" json:"recommendations,omitempty"`
	FollowUpRequired bool                `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate     *time.Time          `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
}

// CampaignStudentDetail joins the participation row with student and campaign context.
type CampaignStudentDetail struct {
	CampaignStudent
	StudentName   string    `db:"student_name" json:"student_name"`
	StudentNIS    string    `db:"student_nis" json:"student_nis"`
	ClassID       string    `db:"class_id" json:"class_id"`
	ClassName     string    `db:"class_name" json:"class_name"`
	CampaignID    string    `db:"campaign_id" json:"campaign_id"`
	CampaignTitle string    `db:"campaign_title" json:"campaign_title"`
	Category      string    `db:"category" json:"category"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
}

// CampaignStudentPatch describes a partial update of a participation row.
type CampaignStudentPatch struct {
	ParentNotes      *string    `json:"parent_notes,omitempty"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	Result           *string    `json:"result,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Recommendations  *string    `json:"recommendations,omitempty"`
	FollowUpRequired *bool      `json:"follow_up_required,omitempty"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`
}

// StatusCounts holds live counts derived from participation rows. Counts are
// always recomputed from child rows on read, never stored.
type StatusCounts struct {
	TotalStudents  int `db:"total_students" json:"total_students"`
	ApprovedCount  int `db:"approved_count" json:"approved_count"`
	PendingCount   int `db:"pending_count" json:"pending_count"`
	RejectedCount  int `db:"rejected_count" json:"rejected_count"`
	CompletedCount int `db:"completed_count" json:"completed_count"`
}

// EventSummary is one campaign with its aggregated counts.
type EventSummary struct {
	CampaignID    string    `db:"campaign_id" json:"campaign_id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time"`
	Location      string    `db:"location" json:"location"`
	DoctorName    string    `db:"doctor_name" json:"doctor_name"`
	Category      string    `db:"category" json:"category"`
	StatusCounts
}

// ClassSummary is the per-class breakdown of one campaign.
type ClassSummary struct {
	ClassCampaignID string `db:"class_campaign_id" json:"class_campaign_id"`
	ClassID         string `db:"class_id" json:"class_id"`
	ClassName       string `db:"class_name" json:"class_name"`
	GradeLevel      string `db:"grade_level" json:"grade_level"`
	StatusCounts
}

// EventDetail combines a campaign with its per-class breakdown.
type EventDetail struct {
	EventSummary
	Classes []ClassSummary `json:"classes"`
}
