package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

var caseColumnNames = []string{"id", "user_id", "title", "case_number", "client_name", "jurisdiction", "court", "case_type", "status", "priority", "description", "filing_date", "next_hearing_date", "created_at", "updated_at"}

func TestListCasesForOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(caseColumnNames).
		AddRow("c1", "u1", "Smith v. Jones", "CV-2026-001", "Smith", "CA", "Superior Court", "civil", "open", "high", nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + caseColumns + " FROM cases WHERE 1=1 AND user_id = $1 AND status = $2 ORDER BY title ASC LIMIT 20 OFFSET 0")).
		WithArgs("u1", models.CaseStatusOpen).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases WHERE 1=1 AND user_id = $1 AND status = $2")).
		WithArgs("u1", models.CaseStatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.CaseStatusOpen
	cases, total, err := repo.List(context.Background(), models.CaseFilter{UserID: "u1", Status: &status, SortBy: "title", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Smith v. Jones", cases[0].Title)
	require.NotNil(t, cases[0].CaseNumber)
	assert.Equal(t, "CV-2026-001", *cases[0].CaseNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCasesRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cases WHERE 1=1 ORDER BY created_at DESC LIMIT 100 OFFSET 100")).
		WillReturnRows(sqlmock.NewRows(caseColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cases WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.CaseFilter{SortBy: "password; DROP TABLE", Page: 2, PageSize: 100})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCaseNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cases WHERE id = $1")).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountCasesByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status AS key, COUNT(*) AS count FROM cases WHERE user_id = $1 GROUP BY status")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("open", 3).AddRow("closed", 1))

	counts, err := repo.CountByStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.CaseCount{{Key: "open", Count: 3}, {Key: "closed", Count: 1}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUpcomingDeadlines(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	now := time.Now()
	until := now.Add(14 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.user_id = $1 AND d.status = 'pending' AND d.due_date >= $2 AND d.due_date <= $3 ORDER BY d.due_date ASC LIMIT 5")).
		WithArgs("u1", now, until).
		WillReturnRows(sqlmock.NewRows([]string{"id", "case_id", "title", "description", "due_date", "status", "priority", "created_at", "updated_at", "case_title"}).
			AddRow("d1", "c1", "File answer", nil, now.Add(48*time.Hour), "pending", "high", now, now, "Smith v. Jones"))

	items, err := repo.ListUpcoming(context.Background(), "u1", now, until, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Smith v. Jones", items[0].CaseTitle)
	assert.Equal(t, "File answer", items[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMotion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMotionRepository(db)

	mock.ExpectExec("INSERT INTO motions").WillReturnResult(sqlmock.NewResult(1, 1))

	m := &models.Motion{CaseID: "c1", Title: "Motion to compel", Status: models.MotionStatusDraft}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.NotEmpty(t, m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOverdueDeadlines(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDeadlineRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("AND d.status = 'pending' AND d.due_date < $2")).
		WithArgs("u1", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.CountOverdue(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRowsReportNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE deadlines SET title").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE motions SET title").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewDeadlineRepository(db).Update(context.Background(), &models.Deadline{ID: "gone", Title: "x", Status: models.DeadlineStatusPending})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	err = NewMotionRepository(db).Update(context.Background(), &models.Motion{ID: "gone", Title: "x", Status: models.MotionStatusDraft})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
