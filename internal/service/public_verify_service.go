package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/dto"
	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

type tokenRedeemer interface {
	Redeem(ctx context.Context, secret string) (*models.VerificationToken, error)
	Consume(ctx context.Context, secret string) (*models.VerificationToken, error)
}

type submissionHandler interface {
	Submit(ctx context.Context, campaignID, employeeID, employeeName string, req dto.SubmitVerificationRequest) (*models.VerificationRecord, error)
	ListForEmployee(ctx context.Context, campaignID, employeeID string) ([]models.VerificationRecord, error)
}

type campaignReader interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
}

type payloadPeripheralReader interface {
	ListByAssignee(ctx context.Context, employeeID string) ([]models.Peripheral, error)
}

// PublicVerifyService is the token-gated surface employees use. Every entry
// point resolves the link secret first; no session or login is involved.
type PublicVerifyService struct {
	tokens      tokenRedeemer
	submissions submissionHandler
	campaigns   campaignReader
	peripherals payloadPeripheralReader
	counter     campaignCounter
	extractor   TagExtractor
	logger      *zap.Logger
}

// NewPublicVerifyService builds a PublicVerifyService.
func NewPublicVerifyService(
	tokens tokenRedeemer,
	submissions submissionHandler,
	campaigns campaignReader,
	peripherals payloadPeripheralReader,
	counter campaignCounter,
	extractor TagExtractor,
	logger *zap.Logger,
) *PublicVerifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicVerifyService{
		tokens:      tokens,
		submissions: submissions,
		campaigns:   campaigns,
		peripherals: peripherals,
		counter:     counter,
		extractor:   extractor,
		logger:      logger,
	}
}

// Payload resolves a link secret into everything the verification page
// needs: the employee's open records and their assigned peripherals.
func (s *PublicVerifyService) Payload(ctx context.Context, secret string) (*dto.VerificationPayload, error) {
	token, err := s.tokens.Redeem(ctx, secret)
	if err != nil {
		return nil, err
	}

	records, err := s.submissions.ListForEmployee(ctx, token.CampaignID, token.EmployeeID)
	if err != nil {
		return nil, err
	}

	payload := &dto.VerificationPayload{
		EmployeeID:   token.EmployeeID,
		EmployeeName: token.EmployeeName,
		CampaignID:   token.CampaignID,
		CampaignName: token.CampaignName,
		ExpiresAt:    token.ExpiresAt,
	}

	if campaign, err := s.campaigns.FindByID(ctx, token.CampaignID); err == nil {
		payload.Deadline = campaign.Deadline
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	for _, record := range records {
		payload.Assets = append(payload.Assets, dto.VerifiableAsset{
			RecordID:  record.ID,
			AssetID:   record.AssetID,
			AssetType: record.AssetType,
			Status:    record.Status,
		})
	}

	peripherals, err := s.peripherals.ListByAssignee(ctx, token.EmployeeID)
	if err != nil {
		return nil, err
	}
	for _, peripheral := range peripherals {
		payload.Peripherals = append(payload.Peripherals, dto.PeripheralItem{
			ID:             peripheral.ID,
			PeripheralType: peripheral.PeripheralType,
			Model:          peripheral.Model,
		})
	}
	return payload, nil
}

// Submit records one asset answer behind a still-valid link. Submitting does
// not consume the token; the employee may have several assets to get through.
func (s *PublicVerifyService) Submit(ctx context.Context, secret string, req dto.SubmitVerificationRequest) (*dto.SubmitVerificationResponse, error) {
	token, err := s.tokens.Redeem(ctx, secret)
	if err != nil {
		return nil, err
	}

	record, err := s.submissions.Submit(ctx, token.CampaignID, token.EmployeeID, token.EmployeeName, req)
	if err != nil {
		return nil, err
	}
	return &dto.SubmitVerificationResponse{
		RecordID:      record.ID,
		Status:        record.Status,
		ExceptionType: record.ExceptionType,
	}, nil
}

// ExtractTag runs service tag extraction over client-supplied OCR text. The
// link must still be valid, the extraction itself is stateless.
func (s *PublicVerifyService) ExtractTag(ctx context.Context, secret string, req dto.ExtractTagRequest) (*dto.ExtractTagResponse, error) {
	if _, err := s.tokens.Redeem(ctx, secret); err != nil {
		return nil, err
	}
	tag, found := s.extractor.ExtractTag(ctx, req.Text)
	return &dto.ExtractTagResponse{ServiceTag: tag, Found: found}, nil
}

// Complete closes the session and consumes the token. The link is dead from
// here on, even if some records are still pending.
func (s *PublicVerifyService) Complete(ctx context.Context, secret string) (*dto.CompleteVerificationResponse, error) {
	token, err := s.tokens.Consume(ctx, secret)
	if err != nil {
		return nil, err
	}
	if _, err := s.counter.RecomputeCounts(ctx, token.CampaignID); err != nil {
		s.logger.Warn("recompute counts after completion failed",
			zap.String("campaign_id", token.CampaignID), zap.Error(err))
	}
	s.logger.Info("verification session completed",
		zap.String("campaign_id", token.CampaignID),
		zap.String("employee_id", token.EmployeeID))
	return &dto.CompleteVerificationResponse{
		CampaignID:  token.CampaignID,
		CompletedAt: *token.UsedAt,
	}, nil
}
