package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

// AssetFilter captures filtering criteria for listing hardware assets.
type AssetFilter struct {
	AssetType  *models.AssetType
	Status     *models.AssetStatus
	AssignedTo string
	Team       string
	Search     string
	Page       int
	PageSize   int
}

// AssetRepository manages persistence for hardware assets.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository constructs an AssetRepository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, service_tag, asset_type, model, invoice_number, po_number, cost, purchase_date,
	assigned_to, assigned_to_name, assigned_date, status, verification_status, last_verified_date, high_value, location, team, created_at, updated_at`

// Create inserts a new hardware asset.
func (r *AssetRepository) Create(ctx context.Context, asset *models.HardwareAsset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now
	const query = `INSERT INTO hardware_assets (id, service_tag, asset_type, model, invoice_number, po_number, cost, purchase_date,
		assigned_to, assigned_to_name, assigned_date, status, verification_status, last_verified_date, high_value, location, team, created_at, updated_at)
		VALUES (:id, :service_tag, :asset_type, :model, :invoice_number, :po_number, :cost, :purchase_date,
		:assigned_to, :assigned_to_name, :assigned_date, :status, :verification_status, :last_verified_date, :high_value, :location, :team, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

// FindByID fetches an asset by identifier.
func (r *AssetRepository) FindByID(ctx context.Context, id string) (*models.HardwareAsset, error) {
	query := fmt.Sprintf(`SELECT %s FROM hardware_assets WHERE id = $1 LIMIT 1`, assetColumns)
	var asset models.HardwareAsset
	if err := r.db.GetContext(ctx, &asset, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find asset: %w", err)
	}
	return &asset, nil
}

// ListByAssignee returns the assets currently assigned to an employee.
func (r *AssetRepository) ListByAssignee(ctx context.Context, employeeID string) ([]models.HardwareAsset, error) {
	query := fmt.Sprintf(`SELECT %s FROM hardware_assets WHERE assigned_to = $1 AND status = $2 ORDER BY asset_type ASC, service_tag ASC`, assetColumns)
	var assets []models.HardwareAsset
	if err := r.db.SelectContext(ctx, &assets, query, employeeID, models.AssetAssigned); err != nil {
		return nil, fmt.Errorf("list assets by assignee: %w", err)
	}
	return assets, nil
}

// List returns assets matching the filter with total count.
func (r *AssetRepository) List(ctx context.Context, filter AssetFilter) ([]models.HardwareAsset, int, error) {
	baseQuery := `FROM hardware_assets WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AssetType != nil {
		conditions = append(conditions, fmt.Sprintf("asset_type = $%d", len(args)+1))
		args = append(args, *filter.AssetType)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.Team != "" {
		conditions = append(conditions, fmt.Sprintf("team = $%d", len(args)+1))
		args = append(args, filter.Team)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(service_tag) LIKE $%d OR LOWER(model) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY service_tag ASC LIMIT %d OFFSET %d", assetColumns, baseQuery, pageSize, offset)

	var assets []models.HardwareAsset
	if err := r.db.SelectContext(ctx, &assets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}
	return assets, total, nil
}

// Update modifies an existing asset.
func (r *AssetRepository) Update(ctx context.Context, asset *models.HardwareAsset) error {
	asset.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hardware_assets SET service_tag = :service_tag, asset_type = :asset_type, model = :model,
		invoice_number = :invoice_number, po_number = :po_number, cost = :cost, purchase_date = :purchase_date,
		assigned_to = :assigned_to, assigned_to_name = :assigned_to_name, assigned_date = :assigned_date,
		status = :status, high_value = :high_value, location = :location, team = :team, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

// UpdateVerificationStatus mirrors the latest verification outcome on the
// asset row.
func (r *AssetRepository) UpdateVerificationStatus(ctx context.Context, id string, status models.AssetVerificationStatus, verifiedAt *time.Time) error {
	const query = `UPDATE hardware_assets SET verification_status = $2, last_verified_date = COALESCE($3, last_verified_date), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, verifiedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update asset verification status: %w", err)
	}
	return nil
}

// Delete removes an asset.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM hardware_assets WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}
