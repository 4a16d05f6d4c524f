package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/internal/repository"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

type assetStore interface {
	List(ctx context.Context, filter repository.AssetFilter) ([]models.HardwareAsset, int, error)
	FindByID(ctx context.Context, id string) (*models.HardwareAsset, error)
	ListByAssignee(ctx context.Context, employeeID string) ([]models.HardwareAsset, error)
	Create(ctx context.Context, asset *models.HardwareAsset) error
	Update(ctx context.Context, asset *models.HardwareAsset) error
	Delete(ctx context.Context, id string) error
}

// CreateAssetRequest is the payload for registering a hardware asset.
type CreateAssetRequest struct {
	ServiceTag    string           `json:"service_tag" validate:"required"`
	AssetType     models.AssetType `json:"asset_type" validate:"required"`
	Model         string           `json:"model" validate:"required"`
	InvoiceNumber string           `json:"invoice_number"`
	PONumber      string           `json:"po_number"`
	Cost          *float64         `json:"cost"`
	PurchaseDate  *time.Time       `json:"purchase_date"`
	HighValue     bool             `json:"high_value"`
	Location      string           `json:"location"`
	Team          string           `json:"team"`
}

// AssignAssetRequest assigns an asset to an employee.
type AssignAssetRequest struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	EmployeeName string `json:"employee_name" validate:"required"`
}

// AssetService manages the hardware inventory.
type AssetService struct {
	repo      assetStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssetService constructs an AssetService.
func NewAssetService(repo assetStore, validate *validator.Validate, logger *zap.Logger) *AssetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{repo: repo, validator: validate, logger: logger}
}

// List returns assets with total count.
func (s *AssetService) List(ctx context.Context, filter repository.AssetFilter) ([]models.HardwareAsset, int, error) {
	return s.repo.List(ctx, filter)
}

// Get fetches one asset.
func (s *AssetService) Get(ctx context.Context, id string) (*models.HardwareAsset, error) {
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, err
	}
	return asset, nil
}

// ListByAssignee returns the assets an employee currently holds.
func (s *AssetService) ListByAssignee(ctx context.Context, employeeID string) ([]models.HardwareAsset, error) {
	return s.repo.ListByAssignee(ctx, employeeID)
}

// Create registers a new asset in stock.
func (s *AssetService) Create(ctx context.Context, req CreateAssetRequest) (*models.HardwareAsset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset payload")
	}

	asset := &models.HardwareAsset{
		ServiceTag:         req.ServiceTag,
		AssetType:          req.AssetType,
		Model:              req.Model,
		InvoiceNumber:      req.InvoiceNumber,
		PONumber:           req.PONumber,
		Cost:               req.Cost,
		PurchaseDate:       req.PurchaseDate,
		Status:             models.AssetInstock,
		VerificationStatus: models.AssetVerificationNotStarted,
		HighValue:          req.HighValue,
		Location:           req.Location,
		Team:               req.Team,
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Assign hands an asset to an employee.
func (s *AssetService) Assign(ctx context.Context, id string, req AssignAssetRequest) (*models.HardwareAsset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	asset.AssignedTo = &req.EmployeeID
	asset.AssignedToName = &req.EmployeeName
	asset.AssignedDate = &now
	asset.Status = models.AssetAssigned
	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, err
	}
	s.logger.Info("asset assigned", zap.String("asset_id", asset.ID), zap.String("employee_id", req.EmployeeID))
	return asset, nil
}

// Unassign returns an asset to stock.
func (s *AssetService) Unassign(ctx context.Context, id string) (*models.HardwareAsset, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	asset.AssignedTo = nil
	asset.AssignedToName = nil
	asset.AssignedDate = nil
	asset.Status = models.AssetInstock
	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete removes an asset from the inventory.
func (s *AssetService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
