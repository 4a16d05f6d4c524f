package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type tokenStore interface {
	Create(ctx context.Context, token *models.VerificationToken) error
	FindBySecret(ctx context.Context, secret string) (*models.VerificationToken, error)
	FindValidToken(ctx context.Context, employeeID, campaignID string, now time.Time) (*models.VerificationToken, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error)
	ListValidByCampaign(ctx context.Context, campaignID string, now time.Time) ([]models.VerificationToken, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenService mints, redeems and retires single-use verification tokens.
type TokenService struct {
	tokens tokenStore
	cfg    config.VerificationConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService builds a TokenService.
func NewTokenService(tokens tokenStore, cfg config.VerificationConfig, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTokenTTLDays <= 0 {
		cfg.DefaultTokenTTLDays = 30
	}
	if cfg.DeadlineBufferDays < 0 {
		cfg.DeadlineBufferDays = 0
	}
	return &TokenService{
		tokens: tokens,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue mints a token for one employee in one campaign. Employees with no
// assets in scope get no token: assetIDs empty returns (nil, nil).
func (s *TokenService) Issue(ctx context.Context, campaign *models.Campaign, employee *models.User, assetIDs []string) (*models.VerificationToken, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}

	secret, err := generateTokenSecret()
	if err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}

	now := s.now()
	token := &models.VerificationToken{
		Secret:        secret,
		EmployeeID:    employee.EmployeeID,
		EmployeeName:  employee.FullName,
		EmployeeEmail: employee.Email,
		CampaignID:    campaign.ID,
		CampaignName:  campaign.Name,
		AssetIDs:      models.StringList(assetIDs),
		CreatedAt:     now,
		ExpiresAt:     s.expiryFor(campaign, now),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// FindValid returns the newest unused, unexpired token an employee holds for
// the campaign, or nil when none remains.
func (s *TokenService) FindValid(ctx context.Context, employeeID, campaignID string) (*models.VerificationToken, error) {
	token, err := s.tokens.FindValidToken(ctx, employeeID, campaignID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

// Redeem resolves a secret to its token, distinguishing unknown, expired and
// already-used links.
func (s *TokenService) Redeem(ctx context.Context, secret string) (*models.VerificationToken, error) {
	token, err := s.tokens.FindBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTokenNotFound
		}
		return nil, err
	}
	if token.Used {
		return nil, appErrors.ErrTokenAlreadyUsed
	}
	if !s.now().Before(token.ExpiresAt) {
		return nil, appErrors.ErrTokenExpired
	}
	return token, nil
}

// Consume redeems the secret and marks the token used. Submissions do not
// consume the token; only the final completion step does.
func (s *TokenService) Consume(ctx context.Context, secret string) (*models.VerificationToken, error) {
	token, err := s.Redeem(ctx, secret)
	if err != nil {
		return nil, err
	}
	usedAt := s.now()
	if err := s.tokens.MarkUsed(ctx, token.ID, usedAt); err != nil {
		return nil, err
	}
	token.Used = true
	token.UsedAt = &usedAt
	return token, nil
}

// ListByCampaign returns every token minted for the campaign.
func (s *TokenService) ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error) {
	return s.tokens.ListByCampaign(ctx, campaignID)
}

// ListValidByCampaign returns the tokens still redeemable for the campaign.
func (s *TokenService) ListValidByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error) {
	return s.tokens.ListValidByCampaign(ctx, campaignID, s.now())
}

// SweepExpired purges unused tokens whose expiry has passed.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("swept expired verification tokens", zap.Int64("removed", removed))
	}
	return removed, nil
}

// BuildLink renders the public URL an employee follows to verify.
func (s *TokenService) BuildLink(token *models.VerificationToken) string {
	base := strings.TrimRight(s.cfg.VerifyBaseURL, "/")
	return fmt.Sprintf("%s/verify/%s", base, token.Secret)
}

// expiryFor computes token lifetime. Campaigns with a future deadline give
// employees until the deadline plus a grace buffer; everything else gets the
// default TTL.
func (s *TokenService) expiryFor(campaign *models.Campaign, now time.Time) time.Time {
	if campaign.Deadline != nil && campaign.Deadline.After(now) {
		days := int(campaign.Deadline.Sub(now).Hours()/24) + s.cfg.DeadlineBufferDays
		return now.AddDate(0, 0, days)
	}
	return now.AddDate(0, 0, s.cfg.DefaultTokenTTLDays)
}

func generateTokenSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
