package models

import "time"

// AssetType tags the category of a hardware asset.
type AssetType string

const (
	AssetLaptop  AssetType = "Laptop"
	AssetMonitor AssetType = "Monitor"
	AssetMobile  AssetType = "Mobile"
)

// AssetStatus tracks whether the asset sits in stock or with an employee.
type AssetStatus string

const (
	AssetInstock  AssetStatus = "Instock"
	AssetAssigned AssetStatus = "Assigned"
)

// AssetVerificationStatus mirrors the latest campaign outcome on the asset
// itself so inventory views can show it without joining records.
type AssetVerificationStatus string

const (
	AssetVerificationNotStarted AssetVerificationStatus = "NotStarted"
	AssetVerificationPending    AssetVerificationStatus = "Pending"
	AssetVerificationVerified   AssetVerificationStatus = "Verified"
	AssetVerificationOverdue    AssetVerificationStatus = "Overdue"
	AssetVerificationException  AssetVerificationStatus = "Exception"
)

// HardwareAsset is a tracked device with an identifying service tag.
type HardwareAsset struct {
	ID            string     `db:"id" json:"id"`
	ServiceTag    string     `db:"service_tag" json:"service_tag"`
	AssetType     AssetType  `db:"asset_type" json:"asset_type"`
	Model         string     `db:"model" json:"model"`
	InvoiceNumber string     `db:"invoice_number" json:"invoice_number,omitempty"`
	PONumber      string     `db:"po_number" json:"po_number,omitempty"`
	Cost          *float64   `db:"cost" json:"cost,omitempty"`
	PurchaseDate  *time.Time `db:"purchase_date" json:"purchase_date,omitempty"`

	AssignedTo     *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedToName *string    `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	AssignedDate   *time.Time `db:"assigned_date" json:"assigned_date,omitempty"`

	Status             AssetStatus             `db:"status" json:"status"`
	VerificationStatus AssetVerificationStatus `db:"verification_status" json:"verification_status"`
	LastVerifiedDate   *time.Time              `db:"last_verified_date" json:"last_verified_date,omitempty"`

	HighValue bool   `db:"high_value" json:"high_value"`
	Location  string `db:"location" json:"location,omitempty"`
	Team      string `db:"team" json:"team,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
