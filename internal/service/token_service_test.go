package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type tokenStoreStub struct {
	created    []*models.VerificationToken
	bySecret   map[string]*models.VerificationToken
	validToken *models.VerificationToken
	marked     []string
	sweepCount int64
	createErr  error
}

func (s *tokenStoreStub) Create(ctx context.Context, token *models.VerificationToken) error {
	if s.createErr != nil {
		return s.createErr
	}
	token.ID = "tok-" + token.EmployeeID
	s.created = append(s.created, token)
	return nil
}

func (s *tokenStoreStub) FindBySecret(ctx context.Context, secret string) (*models.VerificationToken, error) {
	if token, ok := s.bySecret[secret]; ok {
		clone := *token
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *tokenStoreStub) FindValidToken(ctx context.Context, employeeID, campaignID string, now time.Time) (*models.VerificationToken, error) {
	if s.validToken != nil {
		return s.validToken, nil
	}
	return nil, sql.ErrNoRows
}

func (s *tokenStoreStub) ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error) {
	var out []models.VerificationToken
	for _, t := range s.created {
		out = append(out, *t)
	}
	return out, nil
}

func (s *tokenStoreStub) ListValidByCampaign(ctx context.Context, campaignID string, now time.Time) ([]models.VerificationToken, error) {
	var out []models.VerificationToken
	for _, t := range s.created {
		if t.ValidAt(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *tokenStoreStub) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	s.marked = append(s.marked, id)
	for _, t := range s.bySecret {
		if t.ID == id {
			t.Used = true
			t.UsedAt = &usedAt
		}
	}
	return nil
}

func (s *tokenStoreStub) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.sweepCount, nil
}

func newTokenService(store *tokenStoreStub, at time.Time) *TokenService {
	svc := NewTokenService(store, config.VerificationConfig{
		DefaultTokenTTLDays: 30,
		DeadlineBufferDays:  7,
		VerifyBaseURL:       "https://verify.squadron.example",
	}, nil)
	svc.now = func() time.Time { return at }
	return svc
}

func TestIssueSkipsEmployeesWithoutAssets(t *testing.T) {
	store := &tokenStoreStub{}
	svc := newTokenService(store, time.Now().UTC())

	token, err := svc.Issue(context.Background(), &models.Campaign{ID: "c1"}, &models.User{EmployeeID: "e1"}, nil)
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.Empty(t, store.created)
}

func TestIssueExpiryFollowsDeadline(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 10)
	store := &tokenStoreStub{}
	svc := newTokenService(store, now)

	campaign := &models.Campaign{ID: "c1", Name: "Q3", Deadline: &deadline}
	token, err := svc.Issue(context.Background(), campaign, &models.User{EmployeeID: "e1", FullName: "Dana", Email: "dana@example.com"}, []string{"a1"})
	require.NoError(t, err)

	// 10 days to the deadline plus the 7 day buffer.
	assert.Equal(t, now.AddDate(0, 0, 17), token.ExpiresAt)
	assert.NotEmpty(t, token.Secret)
}

func TestIssueExpiryDefaultsWhenDeadlinePast(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)
	store := &tokenStoreStub{}
	svc := newTokenService(store, now)

	token, err := svc.Issue(context.Background(), &models.Campaign{ID: "c1", Deadline: &past}, &models.User{EmployeeID: "e1"}, []string{"a1"})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), token.ExpiresAt)
}

func TestRedeemOutcomes(t *testing.T) {
	now := time.Now().UTC()
	usedAt := now.Add(-time.Hour)
	store := &tokenStoreStub{bySecret: map[string]*models.VerificationToken{
		"live":    {ID: "t1", Secret: "live", ExpiresAt: now.Add(time.Hour)},
		"used":    {ID: "t2", Secret: "used", Used: true, UsedAt: &usedAt, ExpiresAt: now.Add(time.Hour)},
		"expired": {ID: "t3", Secret: "expired", ExpiresAt: now.Add(-time.Minute)},
	}}
	svc := newTokenService(store, now)

	token, err := svc.Redeem(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "t1", token.ID)

	_, err = svc.Redeem(context.Background(), "used")
	assert.ErrorIs(t, err, appErrors.ErrTokenAlreadyUsed)

	_, err = svc.Redeem(context.Background(), "expired")
	assert.ErrorIs(t, err, appErrors.ErrTokenExpired)

	_, err = svc.Redeem(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrTokenNotFound)
}

func TestConsumeMarksUsed(t *testing.T) {
	now := time.Now().UTC()
	store := &tokenStoreStub{bySecret: map[string]*models.VerificationToken{
		"live": {ID: "t1", Secret: "live", ExpiresAt: now.Add(time.Hour)},
	}}
	svc := newTokenService(store, now)

	token, err := svc.Consume(context.Background(), "live")
	require.NoError(t, err)
	assert.True(t, token.Used)
	assert.Equal(t, []string{"t1"}, store.marked)

	// A consumed link cannot be redeemed again.
	_, err = svc.Redeem(context.Background(), "live")
	assert.ErrorIs(t, err, appErrors.ErrTokenAlreadyUsed)
}

func TestBuildLink(t *testing.T) {
	svc := newTokenService(&tokenStoreStub{}, time.Now().UTC())
	link := svc.BuildLink(&models.VerificationToken{Secret: "abc123"})
	assert.Equal(t, "https://verify.squadron.example/verify/abc123", link)
}

func TestSweepExpired(t *testing.T) {
	store := &tokenStoreStub{sweepCount: 4}
	svc := newTokenService(store, time.Now().UTC())

	removed, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
}
