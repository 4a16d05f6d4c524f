package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

// VerificationTokenRepository manages persistence for single-use
// verification tokens.
type VerificationTokenRepository struct {
	db *sqlx.DB
}

// NewVerificationTokenRepository constructs a VerificationTokenRepository.
func NewVerificationTokenRepository(db *sqlx.DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

const tokenColumns = `id, secret, employee_id, employee_name, employee_email, campaign_id, campaign_name, asset_ids, created_at, expires_at, used, used_at`

// Create inserts a new verification token.
func (r *VerificationTokenRepository) Create(ctx context.Context, token *models.VerificationToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO verification_tokens (id, secret, employee_id, employee_name, employee_email, campaign_id, campaign_name, asset_ids, created_at, expires_at, used, used_at)
		VALUES (:id, :secret, :employee_id, :employee_name, :employee_email, :campaign_id, :campaign_name, :asset_ids, :created_at, :expires_at, :used, :used_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}
	return nil
}

// FindBySecret returns the token carrying the given secret regardless of its
// used or expired state, or sql.ErrNoRows.
func (r *VerificationTokenRepository) FindBySecret(ctx context.Context, secret string) (*models.VerificationToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_tokens WHERE secret = $1 LIMIT 1`, tokenColumns)
	var token models.VerificationToken
	if err := r.db.GetContext(ctx, &token, query, secret); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find token by secret: %w", err)
	}
	return &token, nil
}

// FindValidToken returns an unused, unexpired token for the employee in the
// campaign, or sql.ErrNoRows when none remains.
func (r *VerificationTokenRepository) FindValidToken(ctx context.Context, employeeID, campaignID string, now time.Time) (*models.VerificationToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_tokens WHERE employee_id = $1 AND campaign_id = $2 AND used = FALSE AND expires_at > $3 ORDER BY created_at DESC LIMIT 1`, tokenColumns)
	var token models.VerificationToken
	if err := r.db.GetContext(ctx, &token, query, employeeID, campaignID, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find valid token: %w", err)
	}
	return &token, nil
}

// ListByCampaign returns every token minted for a campaign.
func (r *VerificationTokenRepository) ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_tokens WHERE campaign_id = $1 ORDER BY created_at DESC`, tokenColumns)
	var tokens []models.VerificationToken
	if err := r.db.SelectContext(ctx, &tokens, query, campaignID); err != nil {
		return nil, fmt.Errorf("list tokens by campaign: %w", err)
	}
	return tokens, nil
}

// ListValidByCampaign returns unused, unexpired tokens for a campaign.
func (r *VerificationTokenRepository) ListValidByCampaign(ctx context.Context, campaignID string, now time.Time) ([]models.VerificationToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_tokens WHERE campaign_id = $1 AND used = FALSE AND expires_at > $2 ORDER BY created_at DESC`, tokenColumns)
	var tokens []models.VerificationToken
	if err := r.db.SelectContext(ctx, &tokens, query, campaignID, now); err != nil {
		return nil, fmt.Errorf("list valid tokens by campaign: %w", err)
	}
	return tokens, nil
}

// MarkUsed consumes a token.
func (r *VerificationTokenRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	const query = `UPDATE verification_tokens SET used = TRUE, used_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	return nil
}

// DeleteExpired removes unused tokens whose expiry has passed. Used tokens
// are kept as an audit trail.
func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM verification_tokens WHERE used = FALSE AND expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired tokens rows affected: %w", err)
	}
	return removed, nil
}
