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

// PeripheralRepository manages persistence for assigned accessories.
type PeripheralRepository struct {
	db *sqlx.DB
}

// NewPeripheralRepository constructs a PeripheralRepository.
func NewPeripheralRepository(db *sqlx.DB) *PeripheralRepository {
	return &PeripheralRepository{db: db}
}

const peripheralColumns = `id, peripheral_type, model, assigned_to, assigned_to_name, assigned_date, status, team, created_at, updated_at`

// Create inserts a new peripheral.
func (r *PeripheralRepository) Create(ctx context.Context, peripheral *models.Peripheral) error {
	if peripheral.ID == "" {
		peripheral.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if peripheral.CreatedAt.IsZero() {
		peripheral.CreatedAt = now
	}
	peripheral.UpdatedAt = now
	const query = `INSERT INTO peripherals (id, peripheral_type, model, assigned_to, assigned_to_name, assigned_date, status, team, created_at, updated_at)
		VALUES (:id, :peripheral_type, :model, :assigned_to, :assigned_to_name, :assigned_date, :status, :team, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, peripheral); err != nil {
		return fmt.Errorf("create peripheral: %w", err)
	}
	return nil
}

// FindByID fetches a peripheral by identifier.
func (r *PeripheralRepository) FindByID(ctx context.Context, id string) (*models.Peripheral, error) {
	query := fmt.Sprintf(`SELECT %s FROM peripherals WHERE id = $1 LIMIT 1`, peripheralColumns)
	var peripheral models.Peripheral
	if err := r.db.GetContext(ctx, &peripheral, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find peripheral: %w", err)
	}
	return &peripheral, nil
}

// ListByAssignee returns peripherals currently assigned to an employee.
func (r *PeripheralRepository) ListByAssignee(ctx context.Context, employeeID string) ([]models.Peripheral, error) {
	query := fmt.Sprintf(`SELECT %s FROM peripherals WHERE assigned_to = $1 AND status = $2 ORDER BY peripheral_type ASC`, peripheralColumns)
	var peripherals []models.Peripheral
	if err := r.db.SelectContext(ctx, &peripherals, query, employeeID, models.AssetAssigned); err != nil {
		return nil, fmt.Errorf("list peripherals by assignee: %w", err)
	}
	return peripherals, nil
}

// List returns all peripherals.
func (r *PeripheralRepository) List(ctx context.Context) ([]models.Peripheral, error) {
	query := fmt.Sprintf(`SELECT %s FROM peripherals ORDER BY peripheral_type ASC, model ASC`, peripheralColumns)
	var peripherals []models.Peripheral
	if err := r.db.SelectContext(ctx, &peripherals, query); err != nil {
		return nil, fmt.Errorf("list peripherals: %w", err)
	}
	return peripherals, nil
}

// Update modifies an existing peripheral.
func (r *PeripheralRepository) Update(ctx context.Context, peripheral *models.Peripheral) error {
	peripheral.UpdatedAt = time.Now().UTC()
	const query = `UPDATE peripherals SET peripheral_type = :peripheral_type, model = :model, assigned_to = :assigned_to,
		assigned_to_name = :assigned_to_name, assigned_date = :assigned_date, status = :status, team = :team, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, peripheral); err != nil {
		return fmt.Errorf("update peripheral: %w", err)
	}
	return nil
}

// Delete removes a peripheral.
func (r *PeripheralRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM peripherals WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete peripheral: %w", err)
	}
	return nil
}
