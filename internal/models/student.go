package models

import "time"

// Student represents a learner in the school directory. The directory itself
// is maintained elsewhere; this service only reads it to resolve fan-out targets.
type Student struct {
	ID            string    `db:"id" json:"id"`
	NIS           string    `db:"nis" json:"nis"`
	FullName      string    `db:"full_name" json:"full_name"`
	ClassID       string    `db:"class_id" json:"class_id"`
	GuardianName  string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// StudentDetail carries the class context needed to group fan-out targets.
type StudentDetail struct {
	Student
	ClassName  string `db:"class_name" json:"class_name"`
	GradeLevel string `db:"grade_level" json:"grade_level"`
}
