package dto

import "time"

// CaseListQuery is the query string of GET /cases.
type CaseListQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=open pending closed archived"`
	Priority  string `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Search    string `form:"search" validate:"omitempty,max=200"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// CreateCaseRequest is the payload of POST /cases.
type CreateCaseRequest struct {
	Title           string     `json:"title" validate:"required,max=300"`
	CaseNumber      *string    `json:"caseNumber" validate:"omitempty,max=100"`
	ClientName      *string    `json:"clientName" validate:"omitempty,max=200"`
	Jurisdiction    *string    `json:"jurisdiction" validate:"omitempty,max=200"`
	Court           *string    `json:"court" validate:"omitempty,max=200"`
	CaseType        *string    `json:"caseType" validate:"omitempty,max=100"`
	Status          string     `json:"status" validate:"omitempty,oneof=open pending closed archived"`
	Priority        string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Description     *string    `json:"description"`
	FilingDate      *time.Time `json:"filingDate"`
	NextHearingDate *time.Time `json:"nextHearingDate"`
}

// UpdateCaseRequest is the payload of PUT /cases/:id. Nil fields are left unchanged.
type UpdateCaseRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=300"`
	CaseNumber      *string    `json:"caseNumber" validate:"omitempty,max=100"`
	ClientName      *string    `json:"clientName" validate:"omitempty,max=200"`
	Jurisdiction    *string    `json:"jurisdiction" validate:"omitempty,max=200"`
	Court           *string    `json:"court" validate:"omitempty,max=200"`
	CaseType        *string    `json:"caseType" validate:"omitempty,max=100"`
	Status          *string    `json:"status" validate:"omitempty,oneof=open pending closed archived"`
	Priority        *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Description     *string    `json:"description"`
	FilingDate      *time.Time `json:"filingDate"`
	NextHearingDate *time.Time `json:"nextHearingDate"`
}

// CreateMotionRequest is the payload of POST /cases/:id/motions.
type CreateMotionRequest struct {
	Title       string     `json:"title" validate:"required,max=300"`
	MotionType  *string    `json:"motionType" validate:"omitempty,max=100"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft filed pending granted denied withdrawn"`
	FiledDate   *time.Time `json:"filedDate"`
	HearingDate *time.Time `json:"hearingDate"`
	Notes       *string    `json:"notes"`
}

// UpdateMotionRequest is the payload of PUT /motions/:id.
type UpdateMotionRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=300"`
	MotionType  *string    `json:"motionType" validate:"omitempty,max=100"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft filed pending granted denied withdrawn"`
	FiledDate   *time.Time `json:"filedDate"`
	HearingDate *time.Time `json:"hearingDate"`
	Notes       *string    `json:"notes"`
}
