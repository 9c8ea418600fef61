package dto

import (
	"time"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

// CreateDeadlineRequest is the payload of POST /cases/:id/deadlines.
type CreateDeadlineRequest struct {
	Title       string    `json:"title" validate:"required,max=300"`
	Description *string   `json:"description"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// UpdateDeadlineRequest is the payload of PUT /deadlines/:id.
type UpdateDeadlineRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status" validate:"omitempty,oneof=pending completed missed"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// DeadlineItem is a deadline with its derived urgency.
type DeadlineItem struct {
	models.Deadline
	CaseTitle string         `json:"case_title,omitempty"`
	Urgency   models.Urgency `json:"urgency"`
	DaysUntil int            `json:"days_until"`
}

// DashboardSummary is the payload of GET /dashboard.
type DashboardSummary struct {
	TotalCases        int            `json:"totalCases"`
	CasesByStatus     map[string]int `json:"casesByStatus"`
	CasesByPriority   map[string]int `json:"casesByPriority"`
	MotionsByStatus   map[string]int `json:"motionsByStatus"`
	UpcomingDeadlines []DeadlineItem `json:"upcomingDeadlines"`
	OverdueDeadlines  int            `json:"overdueDeadlines"`
	GeneratedAt       time.Time      `json:"generatedAt"`
}

// ExportLink is a signed, expiring download URL.
type ExportLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
