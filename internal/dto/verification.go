package dto

import "github.com/sanketcencora/squadron-verify-api/internal/models"

// RecordListFilter captures query parameters for listing verification records.
type RecordListFilter struct {
	CampaignID string
	EmployeeID string
	Status     *models.VerificationStatus
	Page       int
	PageSize   int
}

// ReviewRequest overrides the status of a record after manual review.
type ReviewRequest struct {
	Status  models.VerificationStatus `json:"status" validate:"required"`
	Comment string                    `json:"comment"`
}

// MarkExceptionRequest flags a record with an exception reason.
type MarkExceptionRequest struct {
	ExceptionType models.ExceptionType `json:"exception_type" validate:"required"`
	Comment       string               `json:"comment"`
}
