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

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

func tokenRows(now time.Time, used bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "secret", "employee_id", "employee_name", "employee_email", "campaign_id", "campaign_name", "asset_ids", "created_at", "expires_at", "used", "used_at",
	}).AddRow("t1", "secret-1", "e1", "Dana", "dana@example.com", "c1", "Q3 Audit", []byte(`["a1","a2"]`), now, now.Add(24*time.Hour), used, nil)
}

func TestFindTokenBySecret(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationTokenRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM verification_tokens WHERE secret").
		WithArgs("secret-1").
		WillReturnRows(tokenRows(now, false))

	token, err := repo.FindBySecret(context.Background(), "secret-1")
	require.NoError(t, err)
	assert.Equal(t, "e1", token.EmployeeID)
	assert.Equal(t, models.StringList{"a1", "a2"}, token.AssetIDs)
	assert.True(t, token.ValidAt(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTokenBySecretNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationTokenRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM verification_tokens WHERE secret").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySecret(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindValidTokenSkipsUsedAndExpired(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationTokenRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM verification_tokens WHERE employee_id = \\$1 AND campaign_id = \\$2 AND used = FALSE AND expires_at > \\$3").
		WithArgs("e1", "c1", now).
		WillReturnRows(tokenRows(now, false))

	token, err := repo.FindValidToken(context.Background(), "e1", "c1", now)
	require.NoError(t, err)
	assert.False(t, token.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkTokenUsed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationTokenRepository(db)

	usedAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_tokens SET used = TRUE, used_at = $2 WHERE id = $1")).
		WithArgs("t1", usedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkUsed(context.Background(), "t1", usedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpiredOnlyTargetsUnused(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationTokenRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM verification_tokens WHERE used = FALSE AND expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
