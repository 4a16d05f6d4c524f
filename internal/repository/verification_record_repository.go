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

// VerificationRecordRepository manages persistence for verification records.
type VerificationRecordRepository struct {
	db *sqlx.DB
}

// NewVerificationRecordRepository constructs a VerificationRecordRepository.
func NewVerificationRecordRepository(db *sqlx.DB) *VerificationRecordRepository {
	return &VerificationRecordRepository{db: db}
}

const recordColumns = `id, campaign_id, employee_id, employee_name, asset_id, expected_tag, asset_type, status,
	recorded_tag, evidence_ref, peripherals_confirmed, peripherals_not_with_me, comment, submitted_at, reviewed_by, exception_type, created_at`

// Create inserts a single verification record.
func (r *VerificationRecordRepository) Create(ctx context.Context, record *models.VerificationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO verification_records (id, campaign_id, employee_id, employee_name, asset_id, expected_tag, asset_type, status,
		recorded_tag, evidence_ref, peripherals_confirmed, peripherals_not_with_me, comment, submitted_at, reviewed_by, exception_type, created_at)
		VALUES (:id, :campaign_id, :employee_id, :employee_name, :asset_id, :expected_tag, :asset_type, :status,
		:recorded_tag, :evidence_ref, :peripherals_confirmed, :peripherals_not_with_me, :comment, :submitted_at, :reviewed_by, :exception_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create verification record: %w", err)
	}
	return nil
}

// CreateBatch inserts records in one transaction. Used at campaign creation
// so a partial failure leaves nothing behind.
func (r *VerificationRecordRepository) CreateBatch(ctx context.Context, records []models.VerificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `INSERT INTO verification_records (id, campaign_id, employee_id, employee_name, asset_id, expected_tag, asset_type, status,
		recorded_tag, evidence_ref, peripherals_confirmed, peripherals_not_with_me, comment, submitted_at, reviewed_by, exception_type, created_at)
		VALUES (:id, :campaign_id, :employee_id, :employee_name, :asset_id, :expected_tag, :asset_type, :status,
		:recorded_tag, :evidence_ref, :peripherals_confirmed, :peripherals_not_with_me, :comment, :submitted_at, :reviewed_by, :exception_type, :created_at)`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			return fmt.Errorf("insert verification record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record batch: %w", err)
	}
	return nil
}

// FindByID fetches a record by identifier.
func (r *VerificationRecordRepository) FindByID(ctx context.Context, id string) (*models.VerificationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_records WHERE id = $1 LIMIT 1`, recordColumns)
	var record models.VerificationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	return &record, nil
}

// FindByCampaignAndAsset returns the record for an asset within a campaign,
// or sql.ErrNoRows when none exists.
func (r *VerificationRecordRepository) FindByCampaignAndAsset(ctx context.Context, campaignID, assetID string) (*models.VerificationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_records WHERE campaign_id = $1 AND asset_id = $2 LIMIT 1`, recordColumns)
	var record models.VerificationRecord
	if err := r.db.GetContext(ctx, &record, query, campaignID, assetID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find record by campaign and asset: %w", err)
	}
	return &record, nil
}

// List returns records matching the filter with total count.
func (r *VerificationRecordRepository) List(ctx context.Context, filter dto.RecordListFilter) ([]models.VerificationRecord, int, error) {
	baseQuery := `FROM verification_records WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CampaignID != "" {
		conditions = append(conditions, fmt.Sprintf("campaign_id = $%d", len(args)+1))
		args = append(args, filter.CampaignID)
	}
	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY employee_name ASC, asset_id ASC LIMIT %d OFFSET %d", recordColumns, baseQuery, pageSize, offset)

	var records []models.VerificationRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list verification records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count verification records: %w", err)
	}
	return records, total, nil
}

// ListByCampaign returns every record for a campaign.
func (r *VerificationRecordRepository) ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_records WHERE campaign_id = $1 ORDER BY employee_name ASC, asset_id ASC`, recordColumns)
	var records []models.VerificationRecord
	if err := r.db.SelectContext(ctx, &records, query, campaignID); err != nil {
		return nil, fmt.Errorf("list records by campaign: %w", err)
	}
	return records, nil
}

// ListByCampaignAndEmployee returns an employee's records inside a campaign.
func (r *VerificationRecordRepository) ListByCampaignAndEmployee(ctx context.Context, campaignID, employeeID string) ([]models.VerificationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_records WHERE campaign_id = $1 AND employee_id = $2 ORDER BY asset_id ASC`, recordColumns)
	var records []models.VerificationRecord
	if err := r.db.SelectContext(ctx, &records, query, campaignID, employeeID); err != nil {
		return nil, fmt.Errorf("list records by campaign and employee: %w", err)
	}
	return records, nil
}

// Update persists the mutable outcome fields of a record.
func (r *VerificationRecordRepository) Update(ctx context.Context, record *models.VerificationRecord) error {
	const query = `UPDATE verification_records SET status = :status, recorded_tag = :recorded_tag, evidence_ref = :evidence_ref,
		peripherals_confirmed = :peripherals_confirmed, peripherals_not_with_me = :peripherals_not_with_me,
		comment = :comment, submitted_at = :submitted_at, reviewed_by = :reviewed_by, exception_type = :exception_type
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update verification record: %w", err)
	}
	return nil
}

// CountByStatus recomputes the per-status record counts for a campaign.
func (r *VerificationRecordRepository) CountByStatus(ctx context.Context, campaignID string) (models.StatusCounts, error) {
	const query = `SELECT
		COALESCE(SUM(CASE WHEN status = 'Verified' THEN 1 ELSE 0 END), 0) AS verified,
		COALESCE(SUM(CASE WHEN status = 'Pending' THEN 1 ELSE 0 END), 0) AS pending,
		COALESCE(SUM(CASE WHEN status = 'Overdue' THEN 1 ELSE 0 END), 0) AS overdue,
		COALESCE(SUM(CASE WHEN status = 'Exception' THEN 1 ELSE 0 END), 0) AS exception
		FROM verification_records WHERE campaign_id = $1`
	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, campaignID); err != nil {
		return models.StatusCounts{}, fmt.Errorf("count records by status: %w", err)
	}
	return counts, nil
}

// ListPendingEmployeeIDs returns distinct employees that still have records
// awaiting submission in the campaign.
func (r *VerificationRecordRepository) ListPendingEmployeeIDs(ctx context.Context, campaignID string) ([]string, error) {
	const query = `SELECT DISTINCT employee_id FROM verification_records WHERE campaign_id = $1 AND status IN ('Pending', 'Overdue')`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, campaignID); err != nil {
		return nil, fmt.Errorf("list pending employees: %w", err)
	}
	return ids, nil
}
