package models

import "time"

// MotionStatus tracks a motion through filing and ruling.
type MotionStatus string

const (
	MotionStatusDraft     MotionStatus = "draft"
	MotionStatusFiled     MotionStatus = "filed"
	MotionStatusPending   MotionStatus = "pending"
	MotionStatusGranted   MotionStatus = "granted"
	MotionStatusDenied    MotionStatus = "denied"
	MotionStatusWithdrawn MotionStatus = "withdrawn"
)

// Motion is a filing attached to a case.
type Motion struct {
	ID          string       `db:"id" json:"id"`
	CaseID      string       `db:"case_id" json:"case_id"`
	Title       string       `db:"title" json:"title"`
	MotionType  *string      `db:"motion_type" json:"motion_type,omitempty"`
	Status      MotionStatus `db:"status" json:"status"`
	FiledDate   *time.Time   `db:"filed_date" json:"filed_date,omitempty"`
	HearingDate *time.Time   `db:"hearing_date" json:"hearing_date,omitempty"`
	Notes       *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
