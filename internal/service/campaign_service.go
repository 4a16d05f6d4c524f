package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
	appErrors "github.com/sanketcencora/squadron-verify-api/pkg/errors"
)

const campaignResource = "campaign"

type campaignStore interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter dto.CampaignListFilter) ([]models.Campaign, int, error)
	Stats(ctx context.Context) (models.CampaignStats, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error
	UpdateCounts(ctx context.Context, id string, counts models.StatusCounts) error
	Delete(ctx context.Context, id string) error
}

type campaignRecordStore interface {
	CreateBatch(ctx context.Context, records []models.VerificationRecord) error
	ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationRecord, error)
	CountByStatus(ctx context.Context, campaignID string) (models.StatusCounts, error)
	ListPendingEmployeeIDs(ctx context.Context, campaignID string) ([]string, error)
}

type campaignAssetReader interface {
	ListByAssignee(ctx context.Context, employeeID string) ([]models.HardwareAsset, error)
}

type campaignPeripheralReader interface {
	ListByAssignee(ctx context.Context, employeeID string) ([]models.Peripheral, error)
}

type employeeDirectory interface {
	ListByTeams(ctx context.Context, teams []string) ([]models.User, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*models.User, error)
}

type tokenIssuer interface {
	Issue(ctx context.Context, campaign *models.Campaign, employee *models.User, assetIDs []string) (*models.VerificationToken, error)
	FindValid(ctx context.Context, employeeID, campaignID string) (*models.VerificationToken, error)
	ListValidByCampaign(ctx context.Context, campaignID string) ([]models.VerificationToken, error)
	BuildLink(token *models.VerificationToken) string
}

type campaignNotifier interface {
	SendVerificationRequest(ctx context.Context, token *models.VerificationToken, campaign *models.Campaign) error
	SendReminder(ctx context.Context, token *models.VerificationToken, campaign *models.Campaign) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CampaignService orchestrates the verification campaign lifecycle: scoping
// employees and assets at creation, launching with notifications, reminders,
// count recomputation and completion.
type CampaignService struct {
	campaigns   campaignStore
	records     campaignRecordStore
	assets      campaignAssetReader
	peripherals campaignPeripheralReader
	directory   employeeDirectory
	tokens      tokenIssuer
	notifier    campaignNotifier
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewCampaignService builds a CampaignService with sane defaults.
func NewCampaignService(
	campaigns campaignStore,
	records campaignRecordStore,
	assets campaignAssetReader,
	peripherals campaignPeripheralReader,
	directory employeeDirectory,
	tokens tokenIssuer,
	notifier campaignNotifier,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
) *CampaignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		campaigns:   campaigns,
		records:     records,
		assets:      assets,
		peripherals: peripherals,
		directory:   directory,
		tokens:      tokens,
		notifier:    notifier,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create scopes the campaign and materialises one verification record per
// in-scope asset. A filter that resolves to no employees is rejected.
func (s *CampaignService) Create(ctx context.Context, req dto.CreateCampaignRequest, claims *models.JWTClaims) (*models.Campaign, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}

	now := s.now()
	employees, err := s.directory.ListByTeams(ctx, req.Filter.Teams)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, appErrors.ErrInvalidFilter
	}

	campaign := &models.Campaign{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   claims.UserID,
		CreatedDate: now,
		StartDate:   req.StartDate,
		Deadline:    req.Deadline,
		Status:      deriveStatus(req.StartDate, req.Deadline, now),
		Filter:      req.Filter,
	}

	records, totalPeripherals, err := s.buildRecords(ctx, campaign, employees)
	if err != nil {
		return nil, err
	}

	inScope := make(map[string]struct{})
	for _, record := range records {
		inScope[record.EmployeeID] = struct{}{}
	}
	campaign.TotalEmployees = len(inScope)
	campaign.TotalAssets = len(records)
	campaign.TotalPeripherals = totalPeripherals
	campaign.PendingCount = len(records)

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].CampaignID = campaign.ID
	}
	if err := s.records.CreateBatch(ctx, records); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, claims, models.AuditActionCampaignCreate, campaign.ID)
	s.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID),
		zap.String("status", string(campaign.Status)),
		zap.Int("employees", campaign.TotalEmployees),
		zap.Int("assets", campaign.TotalAssets))
	return campaign, nil
}

// buildRecords expands the campaign filter into pending records, one per
// asset an in-scope employee holds. Employees with no matching asset are
// left out of the campaign entirely, peripherals included.
func (s *CampaignService) buildRecords(ctx context.Context, campaign *models.Campaign, employees []models.User) ([]models.VerificationRecord, int, error) {
	var records []models.VerificationRecord
	totalPeripherals := 0
	for _, employee := range employees {
		assets, err := s.assets.ListByAssignee(ctx, employee.EmployeeID)
		if err != nil {
			return nil, 0, err
		}
		matched := 0
		for _, asset := range assets {
			if !campaign.Filter.MatchesType(asset.AssetType) {
				continue
			}
			matched++
			records = append(records, models.VerificationRecord{
				CampaignID:   campaign.ID,
				EmployeeID:   employee.EmployeeID,
				EmployeeName: employee.FullName,
				AssetID:      asset.ID,
				ExpectedTag:  asset.ServiceTag,
				AssetType:    asset.AssetType,
				Status:       models.VerificationPending,
			})
		}
		if matched == 0 {
			continue
		}
		peripherals, err := s.peripherals.ListByAssignee(ctx, employee.EmployeeID)
		if err != nil {
			return nil, 0, err
		}
		totalPeripherals += len(peripherals)
	}
	return records, totalPeripherals, nil
}

// Get fetches one campaign.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, err
	}
	return campaign, nil
}

// List returns campaigns with pagination metadata.
func (s *CampaignService) List(ctx context.Context, filter dto.CampaignListFilter) ([]models.Campaign, int, error) {
	return s.campaigns.List(ctx, filter)
}

// Stats aggregates campaign totals per lifecycle status.
func (s *CampaignService) Stats(ctx context.Context) (models.CampaignStats, error) {
	return s.campaigns.Stats(ctx)
}

// Update edits campaign metadata. The filter is fixed once records exist.
func (s *CampaignService) Update(ctx context.Context, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.StartDate != nil {
		campaign.StartDate = req.StartDate
	}
	if req.Deadline != nil {
		campaign.Deadline = req.Deadline
	}
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Launch activates a campaign, mints a token per employee with in-scope
// assets and queues a notification per token. Launching an already active
// campaign is a no-op: no new tokens, no new mail.
func (s *CampaignService) Launch(ctx context.Context, id string, claims *models.JWTClaims) (*dto.LaunchResult, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignActive {
		return &dto.LaunchResult{Campaign: campaign, AlreadyActive: true}, nil
	}
	if campaign.Status == models.CampaignCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "campaign is already completed")
	}

	if err := s.campaigns.UpdateStatus(ctx, campaign.ID, models.CampaignActive); err != nil {
		return nil, err
	}
	campaign.Status = models.CampaignActive

	result := &dto.LaunchResult{Campaign: campaign}
	for employeeID, assetIDs := range s.assetsByEmployee(ctx, campaign.ID) {
		employee, err := s.directory.FindByEmployeeID(ctx, employeeID)
		if err != nil {
			s.logger.Warn("launch: employee missing from directory",
				zap.String("campaign_id", campaign.ID),
				zap.String("employee_id", employeeID))
			result.FailedCount++
			continue
		}
		token, err := s.tokens.Issue(ctx, campaign, employee, assetIDs)
		if err != nil {
			s.logger.Error("launch: token issue failed",
				zap.String("campaign_id", campaign.ID),
				zap.String("employee_id", employeeID),
				zap.Error(err))
			result.FailedCount++
			continue
		}
		if token == nil {
			continue
		}
		result.Links = append(result.Links, dto.VerificationLink{
			EmployeeID:    token.EmployeeID,
			EmployeeName:  token.EmployeeName,
			EmployeeEmail: token.EmployeeEmail,
			URL:           s.tokens.BuildLink(token),
			ExpiresAt:     token.ExpiresAt,
		})
		if s.notifier != nil {
			if err := s.notifier.SendVerificationRequest(ctx, token, campaign); err != nil {
				s.logger.Warn("launch: notification failed",
					zap.String("employee_id", token.EmployeeID), zap.Error(err))
				result.FailedCount++
				continue
			}
			result.NotifiedCount++
		}
	}

	s.writeAudit(ctx, claims, models.AuditActionCampaignLaunch, campaign.ID)
	s.logger.Info("campaign launched",
		zap.String("campaign_id", campaign.ID),
		zap.Int("links", len(result.Links)),
		zap.Int("notified", result.NotifiedCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

// assetsByEmployee groups a campaign's record asset IDs per employee.
func (s *CampaignService) assetsByEmployee(ctx context.Context, campaignID string) map[string][]string {
	records, err := s.records.ListByCampaign(ctx, campaignID)
	if err != nil {
		s.logger.Error("list campaign records", zap.String("campaign_id", campaignID), zap.Error(err))
		return nil
	}
	grouped := make(map[string][]string)
	for _, record := range records {
		grouped[record.EmployeeID] = append(grouped[record.EmployeeID], record.AssetID)
	}
	return grouped
}

// SendReminders notifies employees who still have pending records. Holders
// of a valid token are reminded on it; employees whose token expired or was
// consumed early get a fresh one.
func (s *CampaignService) SendReminders(ctx context.Context, id string) (*dto.ReminderResult, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "campaign is not active")
	}

	pendingIDs, err := s.records.ListPendingEmployeeIDs(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	pending := make(map[string]bool, len(pendingIDs))
	for _, id := range pendingIDs {
		pending[id] = true
	}

	result := &dto.ReminderResult{CampaignID: campaign.ID}
	valid, err := s.tokens.ListValidByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	reminded := make(map[string]bool)
	for i := range valid {
		token := &valid[i]
		if !pending[token.EmployeeID] || reminded[token.EmployeeID] {
			continue
		}
		if err := s.notifier.SendReminder(ctx, token, campaign); err != nil {
			s.logger.Warn("reminder failed", zap.String("employee_id", token.EmployeeID), zap.Error(err))
			result.FailedCount++
			continue
		}
		reminded[token.EmployeeID] = true
		result.RemindedCount++
	}

	// Employees whose link lapsed still owe a verification; mint fresh links.
	grouped := s.assetsByEmployee(ctx, campaign.ID)
	for employeeID := range pending {
		if reminded[employeeID] {
			continue
		}
		employee, err := s.directory.FindByEmployeeID(ctx, employeeID)
		if err != nil {
			result.FailedCount++
			continue
		}
		token, err := s.tokens.Issue(ctx, campaign, employee, grouped[employeeID])
		if err != nil || token == nil {
			if err != nil {
				s.logger.Warn("reminder mint failed", zap.String("employee_id", employeeID), zap.Error(err))
				result.FailedCount++
			}
			continue
		}
		result.MintedCount++
		if err := s.notifier.SendReminder(ctx, token, campaign); err != nil {
			result.FailedCount++
			continue
		}
		result.RemindedCount++
	}
	return result, nil
}

// Complete closes the campaign. Records keep whatever status they reached.
func (s *CampaignService) Complete(ctx context.Context, id string, claims *models.JWTClaims) (*models.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignCompleted {
		return campaign, nil
	}
	if err := s.campaigns.UpdateStatus(ctx, campaign.ID, models.CampaignCompleted); err != nil {
		return nil, err
	}
	campaign.Status = models.CampaignCompleted
	s.writeAudit(ctx, claims, models.AuditActionCampaignComplete, campaign.ID)
	return campaign, nil
}

// Delete removes the campaign and everything hanging off it.
func (s *CampaignService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, id); err != nil {
		return err
	}
	s.writeAudit(ctx, claims, models.AuditActionCampaignDelete, id)
	return nil
}

// RecomputeCounts rebuilds the campaign counters from its records. The
// stored counters are a cache; the records are the truth.
func (s *CampaignService) RecomputeCounts(ctx context.Context, id string) (models.StatusCounts, error) {
	counts, err := s.records.CountByStatus(ctx, id)
	if err != nil {
		return models.StatusCounts{}, err
	}
	if err := s.campaigns.UpdateCounts(ctx, id, counts); err != nil {
		return models.StatusCounts{}, err
	}
	return counts, nil
}

func (s *CampaignService) writeAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string) {
	if s.audit == nil || claims == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   campaignResource,
		ResourceID: &resourceID,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// deriveStatus picks the initial lifecycle status from the campaign dates.
// A deadline already in the past means there is nothing left to run.
func deriveStatus(startDate, deadline *time.Time, now time.Time) models.CampaignStatus {
	if deadline != nil && deadline.Before(now) {
		return models.CampaignCompleted
	}
	if startDate != nil && !startDate.After(now) {
		return models.CampaignActive
	}
	return models.CampaignDraft
}
