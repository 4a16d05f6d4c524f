package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/pkg/export"
)

type exportRecordReader interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]models.VerificationRecord, error)
}

type exportCampaignReader interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
}

// ExportService renders campaign results as CSV or PDF downloads.
type ExportService struct {
	records   exportRecordReader
	campaigns exportCampaignReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(records exportRecordReader, campaigns exportCampaignReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		records:   records,
		campaigns: campaigns,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// CampaignCSV renders the campaign's records as CSV.
func (s *ExportService) CampaignCSV(ctx context.Context, campaignID string) ([]byte, string, error) {
	campaign, dataset, err := s.campaignDataset(ctx, campaignID)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", err
	}
	return payload, exportFilename(campaign.Name, "csv"), nil
}

// CampaignPDF renders the campaign's records as a PDF report.
func (s *ExportService) CampaignPDF(ctx context.Context, campaignID string) ([]byte, string, error) {
	campaign, dataset, err := s.campaignDataset(ctx, campaignID)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Verification Report: %s", campaign.Name)
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, "", err
	}
	return payload, exportFilename(campaign.Name, "pdf"), nil
}

func (s *ExportService) campaignDataset(ctx context.Context, campaignID string) (*models.Campaign, export.Dataset, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, export.Dataset{}, err
	}
	records, err := s.records.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"Employee", "Asset ID", "Asset Type", "Expected Tag", "Recorded Tag", "Status", "Exception", "Submitted At", "Comment"},
	}
	for _, record := range records {
		exception := ""
		if record.ExceptionType != nil {
			exception = string(*record.ExceptionType)
		}
		submittedAt := ""
		if record.SubmittedAt != nil {
			submittedAt = record.SubmittedAt.Format("2006-01-02 15:04")
		}
		dataset.Rows = append(dataset.Rows, []string{
			record.EmployeeName,
			record.AssetID,
			string(record.AssetType),
			record.ExpectedTag,
			record.RecordedTag,
			string(record.Status),
			exception,
			submittedAt,
			record.Comment,
		})
	}
	return campaign, dataset, nil
}

func exportFilename(campaignName, ext string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(campaignName), " ", "-"))
	if slug == "" {
		slug = "campaign"
	}
	return fmt.Sprintf("verification-%s.%s", slug, ext)
}
