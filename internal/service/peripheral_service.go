package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type peripheralStore interface {
	List(ctx context.Context) ([]models.Peripheral, error)
	FindByID(ctx context.Context, id string) (*models.Peripheral, error)
	ListByAssignee(ctx context.Context, employeeID string) ([]models.Peripheral, error)
	Create(ctx context.Context, peripheral *models.Peripheral) error
	Update(ctx context.Context, peripheral *models.Peripheral) error
	Delete(ctx context.Context, id string) error
}

// CreatePeripheralRequest registers an accessory.
type CreatePeripheralRequest struct {
	PeripheralType models.PeripheralType `json:"peripheral_type" validate:"required"`
	Model          string                `json:"model"`
	Team           string                `json:"team"`
}

// PeripheralService manages assigned accessories.
type PeripheralService struct {
	repo      peripheralStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeripheralService constructs a PeripheralService.
func NewPeripheralService(repo peripheralStore, validate *validator.Validate, logger *zap.Logger) *PeripheralService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeripheralService{repo: repo, validator: validate, logger: logger}
}

// List returns all peripherals.
func (s *PeripheralService) List(ctx context.Context) ([]models.Peripheral, error) {
	return s.repo.List(ctx)
}

// ListByAssignee returns the accessories an employee currently holds.
func (s *PeripheralService) ListByAssignee(ctx context.Context, employeeID string) ([]models.Peripheral, error) {
	return s.repo.ListByAssignee(ctx, employeeID)
}

// Get fetches one peripheral.
func (s *PeripheralService) Get(ctx context.Context, id string) (*models.Peripheral, error) {
	peripheral, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "peripheral not found")
		}
		return nil, err
	}
	return peripheral, nil
}

// Create registers an accessory in stock.
func (s *PeripheralService) Create(ctx context.Context, req CreatePeripheralRequest) (*models.Peripheral, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid peripheral payload")
	}
	peripheral := &models.Peripheral{
		PeripheralType: req.PeripheralType,
		Model:          req.Model,
		Status:         models.AssetInstock,
		Team:           req.Team,
	}
	if err := s.repo.Create(ctx, peripheral); err != nil {
		return nil, err
	}
	return peripheral, nil
}

// Assign hands an accessory to an employee.
func (s *PeripheralService) Assign(ctx context.Context, id string, req AssignAssetRequest) (*models.Peripheral, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	peripheral, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	peripheral.AssignedTo = &req.EmployeeID
	peripheral.AssignedToName = &req.EmployeeName
	peripheral.AssignedDate = &now
	peripheral.Status = models.AssetAssigned
	if err := s.repo.Update(ctx, peripheral); err != nil {
		return nil, err
	}
	return peripheral, nil
}

// Delete removes an accessory.
func (s *PeripheralService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
