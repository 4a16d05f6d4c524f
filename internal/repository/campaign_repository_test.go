package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func campaignRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "created_by", "created_date", "start_date", "deadline", "status", "filters",
		"total_employees", "total_assets", "total_peripherals", "verified_count", "pending_count", "overdue_count", "exception_count",
	}).AddRow("c1", "Q3 Audit", "", "admin", now, now, now.Add(14*24*time.Hour), string(models.CampaignActive), []byte(`{}`),
		5, 8, 3, 2, 5, 1, 0)
}

func TestCreateCampaign(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectExec("INSERT INTO campaigns").WillReturnResult(sqlmock.NewResult(1, 1))

	campaign := &models.Campaign{Name: "Q3 Audit", CreatedBy: "admin", Status: models.CampaignDraft}
	err := repo.Create(context.Background(), campaign)
	require.NoError(t, err)
	assert.NotEmpty(t, campaign.ID)
	assert.False(t, campaign.CreatedDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCampaignByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
		WithArgs("c1").
		WillReturnRows(campaignRows(now))

	campaign, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Audit", campaign.Name)
	assert.Equal(t, models.CampaignActive, campaign.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCampaignsFiltersStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE 1=1 AND status").
		WithArgs(string(models.CampaignActive)).
		WillReturnRows(campaignRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM campaigns WHERE 1=1 AND status = $1")).
		WithArgs(string(models.CampaignActive)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.CampaignActive
	campaigns, total, err := repo.List(context.Background(), dto.CampaignListFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCampaignCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET verified_count = $2, pending_count = $3, overdue_count = $4, exception_count = $5 WHERE id = $1")).
		WithArgs("c1", 3, 4, 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCounts(context.Background(), "c1", models.StatusCounts{Verified: 3, Pending: 4, Overdue: 1, Exception: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCampaignCascades(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCampaignRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM verification_tokens WHERE campaign_id = $1")).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM verification_records WHERE campaign_id = $1")).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM campaigns WHERE id = $1")).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
