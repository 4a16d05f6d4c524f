package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type equipmentStore interface {
	List(ctx context.Context, category *models.EquipmentCategory) ([]models.EquipmentCount, error)
	FindByID(ctx context.Context, id string) (*models.EquipmentCount, error)
	CategoryStats(ctx context.Context) ([]models.EquipmentCategoryStats, error)
	Create(ctx context.Context, item *models.EquipmentCount) error
	Update(ctx context.Context, item *models.EquipmentCount) error
	Delete(ctx context.Context, id string) error
}

// UpsertEquipmentRequest creates or updates a bulk equipment entry.
type UpsertEquipmentRequest struct {
	Category  models.EquipmentCategory `json:"category" validate:"required"`
	ItemName  string                   `json:"item_name" validate:"required"`
	Quantity  int                      `json:"quantity" validate:"gte=0"`
	UnitValue float64                  `json:"unit_value" validate:"gte=0"`
	Location  string                   `json:"location"`
	Notes     string                   `json:"notes"`
}

// EquipmentService manages quantity-tracked bulk equipment.
type EquipmentService struct {
	repo      equipmentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEquipmentService constructs an EquipmentService.
func NewEquipmentService(repo equipmentStore, validate *validator.Validate, logger *zap.Logger) *EquipmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{repo: repo, validator: validate, logger: logger}
}

// List returns equipment entries, optionally scoped to one category.
func (s *EquipmentService) List(ctx context.Context, category *models.EquipmentCategory) ([]models.EquipmentCount, error) {
	return s.repo.List(ctx, category)
}

// Stats rolls quantities and values up per category and overall.
func (s *EquipmentService) Stats(ctx context.Context) (*models.EquipmentStats, error) {
	byCategory, err := s.repo.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.EquipmentStats{ByCategory: byCategory}
	for _, c := range byCategory {
		stats.TotalQuantity += c.TotalQuantity
		stats.TotalValue += c.TotalValue
	}
	return stats, nil
}

// Get fetches one entry.
func (s *EquipmentService) Get(ctx context.Context, id string) (*models.EquipmentCount, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment entry not found")
		}
		return nil, err
	}
	return item, nil
}

// Create adds a new entry.
func (s *EquipmentService) Create(ctx context.Context, req UpsertEquipmentRequest) (*models.EquipmentCount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment payload")
	}
	item := &models.EquipmentCount{
		Category:  req.Category,
		ItemName:  req.ItemName,
		Quantity:  req.Quantity,
		UnitValue: req.UnitValue,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces the mutable fields of an entry.
func (s *EquipmentService) Update(ctx context.Context, id string, req UpsertEquipmentRequest) (*models.EquipmentCount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid equipment payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Category = req.Category
	item.ItemName = req.ItemName
	item.Quantity = req.Quantity
	item.UnitValue = req.UnitValue
	item.Location = req.Location
	item.Notes = req.Notes
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an entry.
func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
