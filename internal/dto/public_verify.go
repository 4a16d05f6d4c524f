package dto

import (
	"time"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

// VerificationPayload is what an employee sees when opening their link.
type VerificationPayload struct {
	EmployeeID   string            `json:"employee_id"`
	EmployeeName string            `json:"employee_name"`
	CampaignID   string            `json:"campaign_id"`
	CampaignName string            `json:"campaign_name"`
	Deadline     *time.Time        `json:"deadline,omitempty"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Assets       []VerifiableAsset `json:"assets"`
	Peripherals  []PeripheralItem  `json:"peripherals"`
}

// VerifiableAsset is one device the employee must confirm.
type VerifiableAsset struct {
	RecordID  string                    `json:"record_id"`
	AssetID   string                    `json:"asset_id"`
	AssetType models.AssetType          `json:"asset_type"`
	Status    models.VerificationStatus `json:"status"`
}

// PeripheralItem is an accessory the employee can confirm possession of.
type PeripheralItem struct {
	ID             string                `json:"id"`
	PeripheralType models.PeripheralType `json:"peripheral_type"`
	Model          string                `json:"model,omitempty"`
}

// SubmitVerificationRequest is an employee's answer for a single asset.
type SubmitVerificationRequest struct {
	AssetID              string   `json:"asset_id" validate:"required"`
	EnteredTag           string   `json:"entered_tag"`
	ExtractedTag         string   `json:"extracted_tag"`
	EvidenceRef          string   `json:"evidence_ref"`
	PeripheralsConfirmed []string `json:"peripherals_confirmed"`
	PeripheralsNotWithMe []string `json:"peripherals_not_with_me"`
	Comment              string   `json:"comment"`
}

// SubmitVerificationResponse echoes the reconciliation outcome.
type SubmitVerificationResponse struct {
	RecordID      string                    `json:"record_id"`
	Status        models.VerificationStatus `json:"status"`
	ExceptionType *models.ExceptionType     `json:"exception_type,omitempty"`
}

// ExtractTagRequest carries OCR input for service tag extraction.
type ExtractTagRequest struct {
	Text string `json:"text"`
}

// ExtractTagResponse returns the extracted service tag, if any.
type ExtractTagResponse struct {
	ServiceTag string `json:"service_tag"`
	Found      bool   `json:"found"`
}

// CompleteVerificationResponse acknowledges a finished session.
type CompleteVerificationResponse struct {
	CampaignID  string    `json:"campaign_id"`
	CompletedAt time.Time `json:"completed_at"`
}
