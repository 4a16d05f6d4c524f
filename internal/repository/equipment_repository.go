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

// EquipmentRepository manages persistence for bulk equipment counts.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository constructs an EquipmentRepository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentColumns = `id, category, item_name, quantity, unit_value, location, notes, created_at, updated_at`

// Create inserts a new equipment count entry.
func (r *EquipmentRepository) Create(ctx context.Context, item *models.EquipmentCount) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO equipment_counts (id, category, item_name, quantity, unit_value, location, notes, created_at, updated_at)
		VALUES (:id, :category, :item_name, :quantity, :unit_value, :location, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create equipment count: %w", err)
	}
	return nil
}

// FindByID fetches an equipment count entry by identifier.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.EquipmentCount, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment_counts WHERE id = $1 LIMIT 1`, equipmentColumns)
	var item models.EquipmentCount
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find equipment count: %w", err)
	}
	return &item, nil
}

// List returns equipment entries optionally filtered by category.
func (r *EquipmentRepository) List(ctx context.Context, category *models.EquipmentCategory) ([]models.EquipmentCount, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment_counts`, equipmentColumns)
	args := []interface{}{}
	if category != nil {
		query += " WHERE category = $1"
		args = append(args, *category)
	}
	query += " ORDER BY category ASC, item_name ASC"

	var items []models.EquipmentCount
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list equipment counts: %w", err)
	}
	return items, nil
}

// CategoryStats aggregates quantity and value per category.
func (r *EquipmentRepository) CategoryStats(ctx context.Context) ([]models.EquipmentCategoryStats, error) {
	const query = `SELECT category, COALESCE(SUM(quantity), 0) AS total_quantity, COALESCE(SUM(quantity * unit_value), 0) AS total_value
		FROM equipment_counts GROUP BY category ORDER BY category ASC`
	var stats []models.EquipmentCategoryStats
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("equipment category stats: %w", err)
	}
	return stats, nil
}

// Update modifies an existing equipment entry.
func (r *EquipmentRepository) Update(ctx context.Context, item *models.EquipmentCount) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equipment_counts SET category = :category, item_name = :item_name, quantity = :quantity,
		unit_value = :unit_value, location = :location, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update equipment count: %w", err)
	}
	return nil
}

// Delete removes an equipment entry.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM equipment_counts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete equipment count: %w", err)
	}
	return nil
}
