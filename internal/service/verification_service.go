package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
	"github.com/sanketcencora/squadron-verify-api/pkg/tagmatch"
)

const recordResource = "verification_record"

type recordStore interface {
	Create(ctx context.Context, record *models.VerificationRecord) error
	FindByID(ctx context.Context, id string) (*models.VerificationRecord, error)
	FindByCampaignAndAsset(ctx context.Context, campaignID, assetID string) (*models.VerificationRecord, error)
	List(ctx context.Context, filter dto.RecordListFilter) ([]models.VerificationRecord, int, error)
	ListByCampaignAndEmployee(ctx context.Context, campaignID, employeeID string) ([]models.VerificationRecord, error)
	Update(ctx context.Context, record *models.VerificationRecord) error
	CountByStatus(ctx context.Context, campaignID string) (models.StatusCounts, error)
}

type recordAssetStore interface {
	FindByID(ctx context.Context, id string) (*models.HardwareAsset, error)
	UpdateVerificationStatus(ctx context.Context, id string, status models.AssetVerificationStatus, verifiedAt *time.Time) error
}

type campaignCounter interface {
	RecomputeCounts(ctx context.Context, campaignID string) (models.StatusCounts, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// VerificationService reconciles employee submissions against expected
// service tags and handles the manual review path.
type VerificationService struct {
	records   recordStore
	assets    recordAssetStore
	counter   campaignCounter
	cache     statsCache
	statsCfg  config.StatsConfig
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVerificationService builds a VerificationService.
func NewVerificationService(
	records recordStore,
	assets recordAssetStore,
	counter campaignCounter,
	cache statsCache,
	statsCfg config.StatsConfig,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
) *VerificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		records:   records,
		assets:    assets,
		counter:   counter,
		cache:     cache,
		statsCfg:  statsCfg,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit records an employee's answer for one asset and reconciles the
// provided tag against the expected one. A tag read from the uploaded photo
// wins over whatever the employee typed.
func (s *VerificationService) Submit(ctx context.Context, campaignID, employeeID, employeeName string, req dto.SubmitVerificationRequest) (*models.VerificationRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	record, err := s.findOrCreateRecord(ctx, campaignID, employeeID, employeeName, req.AssetID)
	if err != nil {
		return nil, err
	}

	recordedTag := req.EnteredTag
	if req.ExtractedTag != "" {
		recordedTag = req.ExtractedTag
	}

	now := s.now()
	record.RecordedTag = recordedTag
	record.EvidenceRef = req.EvidenceRef
	record.PeripheralsConfirmed = models.StringList(req.PeripheralsConfirmed)
	record.PeripheralsNotWithMe = models.StringList(req.PeripheralsNotWithMe)
	record.Comment = req.Comment
	record.SubmittedAt = &now

	// A mismatch needs both sides. When either tag is absent the submission
	// itself is the confirmation, so the record verifies.
	if record.ExpectedTag != "" && recordedTag != "" && !tagmatch.Matches(record.ExpectedTag, recordedTag) {
		mismatch := models.ExceptionMismatch
		record.Status = models.VerificationException
		record.ExceptionType = &mismatch
	} else {
		record.Status = models.VerificationVerified
		record.ExceptionType = nil
	}

	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}
	s.mirrorAssetStatus(ctx, record, now)
	s.refreshCounts(ctx, record.CampaignID)
	return record, nil
}

// findOrCreateRecord returns the campaign record for the asset, creating one
// on the fly when the asset was assigned after the campaign was scoped. The
// asset must belong to the submitting employee.
func (s *VerificationService) findOrCreateRecord(ctx context.Context, campaignID, employeeID, employeeName, assetID string) (*models.VerificationRecord, error) {
	record, err := s.records.FindByCampaignAndAsset(ctx, campaignID, assetID)
	if err == nil {
		if record.EmployeeID != employeeID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "asset is not assigned to this employee")
		}
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, err
	}
	if asset.AssignedTo == nil || *asset.AssignedTo != employeeID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "asset is not assigned to this employee")
	}

	record = &models.VerificationRecord{
		CampaignID:   campaignID,
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		AssetID:      asset.ID,
		ExpectedTag:  asset.ServiceTag,
		AssetType:    asset.AssetType,
		Status:       models.VerificationPending,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Review is an unconditional administrative override of a record's status.
func (s *VerificationService) Review(ctx context.Context, recordID string, req dto.ReviewRequest, claims *models.JWTClaims) (*models.VerificationRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown verification status")
	}

	record, err := s.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	record.Status = req.Status
	if req.Comment != "" {
		record.Comment = req.Comment
	}
	record.ReviewedBy = &claims.UserID
	if req.Status != models.VerificationException {
		record.ExceptionType = nil
	}

	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}
	s.mirrorAssetStatus(ctx, record, s.now())
	s.refreshCounts(ctx, record.CampaignID)
	s.writeAudit(ctx, claims, models.AuditActionRecordReview, record.ID)
	return record, nil
}

// MarkException flags a record without a submission, for example when an
// employee reports a missing device over a side channel.
func (s *VerificationService) MarkException(ctx context.Context, recordID string, req dto.MarkExceptionRequest, claims *models.JWTClaims) (*models.VerificationRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !req.ExceptionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exception type")
	}

	record, err := s.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	exception := req.ExceptionType
	record.Status = models.VerificationException
	record.ExceptionType = &exception
	if req.Comment != "" {
		record.Comment = req.Comment
	}
	record.ReviewedBy = &claims.UserID

	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}
	s.mirrorAssetStatus(ctx, record, s.now())
	s.refreshCounts(ctx, record.CampaignID)
	s.writeAudit(ctx, claims, models.AuditActionRecordException, record.ID)
	return record, nil
}

// Get fetches one record.
func (s *VerificationService) Get(ctx context.Context, id string) (*models.VerificationRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "verification record not found")
		}
		return nil, err
	}
	return record, nil
}

// List returns records with pagination metadata.
func (s *VerificationService) List(ctx context.Context, filter dto.RecordListFilter) ([]models.VerificationRecord, int, error) {
	return s.records.List(ctx, filter)
}

// ListForEmployee returns the employee's records inside a campaign.
func (s *VerificationService) ListForEmployee(ctx context.Context, campaignID, employeeID string) ([]models.VerificationRecord, error) {
	return s.records.ListByCampaignAndEmployee(ctx, campaignID, employeeID)
}

// StatsForCampaign returns the per-status record partition, served from the
// cache when fresh.
func (s *VerificationService) StatsForCampaign(ctx context.Context, campaignID string) (models.StatusCounts, error) {
	key := statsCacheKey(campaignID)
	if s.cacheEnabled() {
		var cached models.StatusCounts
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	counts, err := s.records.CountByStatus(ctx, campaignID)
	if err != nil {
		return models.StatusCounts{}, err
	}
	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, counts, s.statsCfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("campaign_id", campaignID), zap.Error(err))
		}
	}
	return counts, nil
}

func (s *VerificationService) cacheEnabled() bool {
	return s.cache != nil && s.statsCfg.CacheEnabled
}

// mirrorAssetStatus reflects the record outcome onto the asset row so the
// inventory shows verification state without joining records.
func (s *VerificationService) mirrorAssetStatus(ctx context.Context, record *models.VerificationRecord, now time.Time) {
	if s.assets == nil {
		return
	}
	var status models.AssetVerificationStatus
	var verifiedAt *time.Time
	switch record.Status {
	case models.VerificationVerified:
		status = models.AssetVerificationVerified
		verifiedAt = &now
	case models.VerificationException:
		status = models.AssetVerificationException
	case models.VerificationOverdue:
		status = models.AssetVerificationOverdue
	default:
		status = models.AssetVerificationPending
	}
	if err := s.assets.UpdateVerificationStatus(ctx, record.AssetID, status, verifiedAt); err != nil {
		s.logger.Warn("asset status mirror failed", zap.String("asset_id", record.AssetID), zap.Error(err))
	}
}

// refreshCounts recomputes the campaign counters and drops the cached stats.
func (s *VerificationService) refreshCounts(ctx context.Context, campaignID string) {
	if s.counter != nil {
		if _, err := s.counter.RecomputeCounts(ctx, campaignID); err != nil {
			s.logger.Warn("count recompute failed", zap.String("campaign_id", campaignID), zap.Error(err))
		}
	}
	if s.cacheEnabled() {
		if err := s.cache.DeleteByPattern(ctx, statsCacheKey(campaignID)); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.String("campaign_id", campaignID), zap.Error(err))
		}
	}
}

func (s *VerificationService) writeAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string) {
	if s.audit == nil || claims == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   recordResource,
		ResourceID: &resourceID,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func statsCacheKey(campaignID string) string {
	return fmt.Sprintf("stats:campaign:%s", campaignID)
}
