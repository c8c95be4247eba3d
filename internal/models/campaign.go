package models

import "time"

// Campaign represents one scheduled vaccination or health-examination round.
type Campaign struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time"`
	Location      string    `db:"location" json:"location"`
	DoctorName    string    `db:"doctor_name" json:"doctor_name"`
	Category      string    `db:"category" json:"category"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CampaignFilter defines listing criteria for campaigns.
type CampaignFilter struct {
	Category  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
