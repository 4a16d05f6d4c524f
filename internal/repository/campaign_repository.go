package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

// CampaignRepository manages persistence for verification campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs a CampaignRepository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, name, description, created_by, created_date, start_date, deadline, status, filters,
	total_employees, total_assets, total_peripherals, verified_count, pending_count, overdue_count, exception_count`

// Create inserts a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.CreatedDate.IsZero() {
		campaign.CreatedDate = time.Now().UTC()
	}
	const query = `INSERT INTO campaigns (id, name, description, created_by, created_date, start_date, deadline, status, filters,
		total_employees, total_assets, total_peripherals, verified_count, pending_count, overdue_count, exception_count)
		VALUES (:id, :name, :description, :created_by, :created_date, :start_date, :deadline, :status, :filters,
		:total_employees, :total_assets, :total_peripherals, :verified_count, :pending_count, :overdue_count, :exception_count)`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// FindByID fetches a campaign by identifier.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1 LIMIT 1`, campaignColumns)
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return &campaign, nil
}

// List returns campaigns matching the filter with total count.
func (r *CampaignRepository) List(ctx context.Context, filter dto.CampaignListFilter) ([]models.Campaign, int, error) {
	baseQuery := `FROM campaigns WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":         true,
		"created_date": true,
		"deadline":     true,
		"status":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_date"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", campaignColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}
	return campaigns, total, nil
}

// Stats aggregates campaign totals per lifecycle status.
func (r *CampaignRepository) Stats(ctx context.Context) (models.CampaignStats, error) {
	const query = `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'Draft' THEN 1 ELSE 0 END), 0) AS draft,
		COALESCE(SUM(CASE WHEN status = 'Active' THEN 1 ELSE 0 END), 0) AS active,
		COALESCE(SUM(CASE WHEN status = 'Completed' THEN 1 ELSE 0 END), 0) AS completed
		FROM campaigns`
	var stats models.CampaignStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return models.CampaignStats{}, fmt.Errorf("campaign stats: %w", err)
	}
	return stats, nil
}

// Update modifies campaign metadata.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	const query = `UPDATE campaigns SET name = :name, description = :description, start_date = :start_date, deadline = :deadline, status = :status WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

// UpdateStatus transitions a campaign to the given status.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error {
	const query = `UPDATE campaigns SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	return nil
}

// UpdateCounts replaces the stored progress counters.
func (r *CampaignRepository) UpdateCounts(ctx context.Context, id string, counts models.StatusCounts) error {
	const query = `UPDATE campaigns SET verified_count = $2, pending_count = $3, overdue_count = $4, exception_count = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, counts.Verified, counts.Pending, counts.Overdue, counts.Exception); err != nil {
		return fmt.Errorf("update campaign counts: %w", err)
	}
	return nil
}

// UpdateScope stores the population sizes computed at record generation.
func (r *CampaignRepository) UpdateScope(ctx context.Context, id string, employees, assets, peripherals int) error {
	const query = `UPDATE campaigns SET total_employees = $2, total_assets = $3, total_peripherals = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, employees, assets, peripherals); err != nil {
		return fmt.Errorf("update campaign scope: %w", err)
	}
	return nil
}

// Delete removes a campaign together with its records and tokens.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete campaign: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verification_tokens WHERE campaign_id = $1`, id); err != nil {
		return fmt.Errorf("delete campaign tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM verification_records WHERE campaign_id = $1`, id); err != nil {
		return fmt.Errorf("delete campaign records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete campaign: %w", err)
	}
	return nil
}
