package dto

import (
	"time"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
)

// CreateCampaignRequest is the payload for creating a verification campaign.
type CreateCampaignRequest struct {
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	StartDate   *time.Time             `json:"start_date"`
	Deadline    *time.Time             `json:"deadline"`
	Filter      models.CampaignFilter  `json:"filter"`
}

// UpdateCampaignRequest is a partial update of campaign metadata. Filters are
// fixed once records have been generated.
type UpdateCampaignRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	Deadline    *time.Time `json:"deadline"`
}

// CampaignListFilter captures query parameters for listing campaigns.
type CampaignListFilter struct {
	Status    *models.CampaignStatus
	CreatedBy string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// VerificationLink pairs an employee with the link minted for them.
type VerificationLink struct {
	EmployeeID    string    `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	EmployeeEmail string    `json:"employee_email"`
	URL           string    `json:"url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// LaunchResult reports the outcome of launching a campaign.
type LaunchResult struct {
	Campaign      *models.Campaign   `json:"campaign"`
	AlreadyActive bool               `json:"already_active"`
	Links         []VerificationLink `json:"links,omitempty"`
	NotifiedCount int                `json:"notified_count"`
	FailedCount   int                `json:"failed_count"`
}

// ReminderResult reports the outcome of sending reminder notifications.
type ReminderResult struct {
	CampaignID    string `json:"campaign_id"`
	RemindedCount int    `json:"reminded_count"`
	MintedCount   int    `json:"minted_count"`
	FailedCount   int    `json:"failed_count"`
}
