package models

import "time"

// CaseStatus is the lifecycle stage of a matter.
type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "open"
	CaseStatusPending  CaseStatus = "pending"
	CaseStatusClosed   CaseStatus = "closed"
	CaseStatusArchived CaseStatus = "archived"
)

// Priority is shared by cases and deadlines.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Case is a legal matter owned by one user.
type Case struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	Title           string     `db:"title" json:"title"`
	CaseNumber      *string    `db:"case_number" json:"case_number,omitempty"`
	ClientName      *string    `db:"client_name" json:"client_name,omitempty"`
	Jurisdiction    *string    `db:"jurisdiction" json:"jurisdiction,omitempty"`
	Court           *string    `db:"court" json:"court,omitempty"`
	CaseType        *string    `db:"case_type" json:"case_type,omitempty"`
	Status          CaseStatus `db:"status" json:"status"`
	Priority        Priority   `db:"priority" json:"priority"`
	Description     *string    `db:"description" json:"description,omitempty"`
	FilingDate      *time.Time `db:"filing_date" json:"filing_date,omitempty"`
	NextHearingDate *time.Time `db:"next_hearing_date" json:"next_hearing_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// CaseFilter narrows case listings. An empty UserID lists every owner (admin view).
type CaseFilter struct {
	UserID    string
	Status    *CaseStatus
	Priority  *Priority
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CaseCount is one bucket of a grouped case count.
type CaseCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}
