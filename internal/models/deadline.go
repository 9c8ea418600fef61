package models

import "time"

// DeadlineStatus is the completion state of a deadline.
type DeadlineStatus string

const (
	DeadlineStatusPending   DeadlineStatus = "pending"
	DeadlineStatusCompleted DeadlineStatus = "completed"
	DeadlineStatusMissed    DeadlineStatus = "missed"
)

// Urgency is derived from the time left until a deadline.
type Urgency string

const (
	UrgencyOverdue   Urgency = "overdue"
	UrgencyCritical  Urgency = "critical"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyUpcoming  Urgency = "upcoming"
	UrgencyScheduled Urgency = "scheduled"
	UrgencyCompleted Urgency = "completed"
)

// Deadline is a dated obligation on a case.
type Deadline struct {
	ID          string         `db:"id" json:"id"`
	CaseID      string         `db:"case_id" json:"case_id"`
	Title       string         `db:"title" json:"title"`
	Description *string        `db:"description" json:"description,omitempty"`
	DueDate     time.Time      `db:"due_date" json:"due_date"`
	Status      DeadlineStatus `db:"status" json:"status"`
	Priority    Priority       `db:"priority" json:"priority"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// DeadlineWithCase joins a deadline with the title of its case.
type DeadlineWithCase struct {
	Deadline
	CaseTitle string `db:"case_title" json:"case_title"`
}
