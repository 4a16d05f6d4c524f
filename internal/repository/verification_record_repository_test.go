package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

func recordRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "campaign_id", "employee_id", "employee_name", "asset_id", "expected_tag", "asset_type", "status",
		"recorded_tag", "evidence_ref", "peripherals_confirmed", "peripherals_not_with_me", "comment", "submitted_at", "reviewed_by", "exception_type", "created_at",
	}).AddRow("r1", "c1", "e1", "Dana", "a1", "ABC1234", string(models.AssetLaptop), string(models.VerificationPending),
		"", "", []byte(`[]`), []byte(`[]`), "", nil, nil, nil, now)
}

func TestFindRecordByCampaignAndAsset(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationRecordRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM verification_records WHERE campaign_id = \\$1 AND asset_id = \\$2").
		WithArgs("c1", "a1").
		WillReturnRows(recordRows(now))

	record, err := repo.FindByCampaignAndAsset(context.Background(), "c1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "ABC1234", record.ExpectedTag)
	assert.Equal(t, models.VerificationPending, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRecordByCampaignAndAssetNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationRecordRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM verification_records WHERE campaign_id = \\$1 AND asset_id = \\$2").
		WithArgs("c1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCampaignAndAsset(context.Background(), "c1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecordBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO verification_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO verification_records").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	records := []models.VerificationRecord{
		{CampaignID: "c1", EmployeeID: "e1", AssetID: "a1", Status: models.VerificationPending},
		{CampaignID: "c1", EmployeeID: "e1", AssetID: "a2", Status: models.VerificationPending},
	}
	err := repo.CreateBatch(context.Background(), records)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationRecordRepository(db)

	rows := sqlmock.NewRows([]string{"verified", "pending", "overdue", "exception"}).AddRow(4, 2, 1, 1)
	mock.ExpectQuery("SELECT (.+) FROM verification_records WHERE campaign_id").
		WithArgs("c1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Verified)
	assert.Equal(t, 8, counts.Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingEmployeeIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationRecordRepository(db)

	rows := sqlmock.NewRows([]string{"employee_id"}).AddRow("e1").AddRow("e2")
	mock.ExpectQuery("SELECT DISTINCT employee_id FROM verification_records").
		WithArgs("c1").
		WillReturnRows(rows)

	ids, err := repo.ListPendingEmployeeIDs(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
