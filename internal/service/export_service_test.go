package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

type exportRecordReaderStub struct {
	records []models.VerificationRecord
}

func (s *exportRecordReaderStub) ListByCampaign(_ context.Context, _ string) ([]models.VerificationRecord, error) {
	return s.records, nil
}

type exportCampaignReaderStub struct {
	campaign *models.Campaign
}

func (s *exportCampaignReaderStub) FindByID(_ context.Context, _ string) (*models.Campaign, error) {
	return s.campaign, nil
}

func TestCampaignCSVRendersRecordRows(t *testing.T) {
	submitted := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	mismatch := models.ExceptionMismatch
	records := &exportRecordReaderStub{records: []models.VerificationRecord{
		{
			EmployeeName: "Dana",
			AssetID:      "a1",
			AssetType:    models.AssetLaptop,
			ExpectedTag:  "ABC1234",
			RecordedTag:  "ABC1234",
			Status:       models.VerificationVerified,
			SubmittedAt:  &submitted,
		},
		{
			EmployeeName:  "Riley",
			AssetID:       "a2",
			AssetType:     models.AssetLaptop,
			ExpectedTag:   "DEF5678",
			RecordedTag:   "XYZ9999",
			Status:        models.VerificationException,
			ExceptionType: &mismatch,
			Comment:       "tag sticker worn off",
		},
	}}
	campaigns := &exportCampaignReaderStub{campaign: &models.Campaign{ID: "c1", Name: "Q3 Laptop Audit"}}

	svc := NewExportService(records, campaigns, nil)
	payload, filename, err := svc.CampaignCSV(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "verification-q3-laptop-audit.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Dana,a1,Laptop,ABC1234,ABC1234,Verified,,2026-08-20 09:30")
	assert.Contains(t, lines[2], "Riley,a2,Laptop,DEF5678,XYZ9999,Exception,Mismatch")
}

func TestCampaignPDFNamesReportAfterCampaign(t *testing.T) {
	records := &exportRecordReaderStub{}
	campaigns := &exportCampaignReaderStub{campaign: &models.Campaign{ID: "c1", Name: "Q3 Laptop Audit"}}

	svc := NewExportService(records, campaigns, nil)
	payload, filename, err := svc.CampaignPDF(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "verification-q3-laptop-audit.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}
