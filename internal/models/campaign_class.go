package models

import "time"

// ClassCampaign links one class to one campaign. The class name and grade are
// denormalized snapshots taken at fan-out time; a later class rename does not
// cascade into existing associations.
type ClassCampaign struct {
	ID         string    `db:"id" json:"id"`
	CampaignID string    `db:"campaign_id" json:"campaign_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	ClassName  string    `db:"class_name" json:"class_name"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ClassCampaignDetail extends ClassCampaign with campaign display fields.
type ClassCampaignDetail struct {
	ClassCampaign
	CampaignTitle    string    `db:"campaign_title" json:"campaign_title"`
	CampaignCategory string    `db:"campaign_category" json:"campaign_category"`
	ScheduledDate    time.Time `db:"scheduled_date" json:"scheduled_date"`
}

// ClassCampaignPatch describes a partial update of an association row.
type ClassCampaignPatch struct {
	ClassName  *string `json:"class_name,omitempty"`
	GradeLevel *string `json:"grade_level,omitempty"`
}
