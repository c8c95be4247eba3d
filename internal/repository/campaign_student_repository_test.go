package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uks-adp-api/internal/models"
)

func newCampaignStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCampaignStudentRepositoryBulkCreateSkipsConflicts(t *testing.T) {
	db, mock, cleanup := newCampaignStudentRepoMock(t)
	defer cleanup()
	repo := NewCampaignStudentRepository(db)

	mock.ExpectBegin()
	// First row inserts, second hits ON CONFLICT DO NOTHING.
	mock.ExpectExec("INSERT INTO campaign_students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO campaign_students").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := repo.BulkCreate(context.Background(), []models.CampaignStudent{
		{ClassCampaignID: "cc-1", StudentID: "stu-1"},
		{ClassCampaignID: "cc-1", StudentID: "stu-2"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, "stu-1", created[0].StudentID)
	require.Equal(t, models.StatusPending, created[0].Status)
	require.NotEmpty(t, created[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStudentRepositoryBulkCreateEmpty(t *testing.T) {
	db, mock, cleanup := newCampaignStudentRepoMock(t)
	defer cleanup()
	repo := NewCampaignStudentRepository(db)

	created, err := repo.BulkCreate(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStudentRepositoryEventSummary(t *testing.T) {
	db, mock, cleanup := newCampaignStudentRepoMock(t)
	defer cleanup()
	repo := NewCampaignStudentRepository(db)

	rows := sqlmock.NewRows([]string{
		"campaign_id", "title", "description", "scheduled_date", "scheduled_time",
		"location", "doctor_name", "category",
		"total_students", "approved_count", "pending_count", "rejected_count", "completed_count",
	}).AddRow("camp-1", "Campak Rubella", "", time.Now(), "08:00", "Aula", "dr. Sari", "Vaksinasi", 30, 12, 10, 3, 5)
	mock.ExpectQuery("SELECT cp.id AS campaign_id").
		WithArgs("camp-1").
		WillReturnRows(rows)

	summary, err := repo.EventSummary(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Equal(t, "camp-1", summary.CampaignID)
	require.Equal(t, 30, summary.TotalStudents)
	require.Equal(t, 12, summary.ApprovedCount)
	require.Equal(t, 5, summary.CompletedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStudentRepositoryCountNonPending(t *testing.T) {
	db, mock, cleanup := newCampaignStudentRepoMock(t)
	defer cleanup()
	repo := NewCampaignStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(cs.id) FROM campaign_students cs")).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountNonPending(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStudentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newCampaignStudentRepoMock(t)
	defer cleanup()
	repo := NewCampaignStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaign_students SET status = $2, rejection_reason = COALESCE($3, rejection_reason), updated_at = $4 WHERE id = $1")).
		WithArgs("cs-1", models.StatusApproved, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "cs-1", models.StatusApproved, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStudentRepositoryDeleteByCampaign(t *testing.T) {
	db, mock, cleanup := newCampaignStudentRepoMock(t)
	defer cleanup()
	repo := NewCampaignStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM campaign_students cs USING class_campaigns cc")).
		WithArgs("camp-1").
		WillReturnResult(sqlmock.NewResult(0, 25))

	affected, err := repo.DeleteByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	require.EqualValues(t, 25, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}
