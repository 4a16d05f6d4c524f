package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CampaignStatus enumerates the campaign lifecycle states.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignActive    CampaignStatus = "Active"
	CampaignCompleted CampaignStatus = "Completed"
)

// CampaignFilter is the typed filter specification a campaign is created
// with: which teams are in scope and which asset types count. An empty
// AssetTypes set means every type matches. It is stored as a JSON document
// in the campaigns table.
type CampaignFilter struct {
	Teams      []string    `json:"teams"`
	AssetTypes []AssetType `json:"assetTypes"`
}

// MatchesType reports whether the given asset type is in scope.
func (f CampaignFilter) MatchesType(t AssetType) bool {
	if len(f.AssetTypes) == 0 {
		return true
	}
	for _, at := range f.AssetTypes {
		if at == t {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer, serializing the filter for persistence.
func (f CampaignFilter) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *CampaignFilter) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = CampaignFilter{}
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported filter source type %T", src)
	}
}

// Campaign represents a bounded verification exercise over a filtered set of
// employees and their assigned assets.
type Campaign struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedDate time.Time      `db:"created_date" json:"created_date"`
	StartDate   *time.Time     `db:"start_date" json:"start_date,omitempty"`
	Deadline    *time.Time     `db:"deadline" json:"deadline,omitempty"`
	Status      CampaignStatus `db:"status" json:"status"`
	Filter      CampaignFilter `db:"filters" json:"filter"`

	// Denormalized totals captured at launch.
	TotalEmployees   int `db:"total_employees" json:"total_employees"`
	TotalAssets      int `db:"total_assets" json:"total_assets"`
	TotalPeripherals int `db:"total_peripherals" json:"total_peripherals"`

	// Rollup counters: a cache over the campaign's verification records,
	// always recomputed from the record set, never patched in place.
	VerifiedCount  int `db:"verified_count" json:"verified_count"`
	PendingCount   int `db:"pending_count" json:"pending_count"`
	OverdueCount   int `db:"overdue_count" json:"overdue_count"`
	ExceptionCount int `db:"exception_count" json:"exception_count"`
}

// CampaignStats aggregates campaign counts by lifecycle status.
type CampaignStats struct {
	Total     int `db:"total" json:"total"`
	Draft     int `db:"draft" json:"draft"`
	Active    int `db:"active" json:"active"`
	Completed int `db:"completed" json:"completed"`
}

// StatusCounts is the per-status partition of a campaign's records.
type StatusCounts struct {
	Verified  int `db:"verified" json:"verified"`
	Pending   int `db:"pending" json:"pending"`
	Overdue   int `db:"overdue" json:"overdue"`
	Exception int `db:"exception" json:"exception"`
}

// Total returns the partition sum.
func (c StatusCounts) Total() int {
	return c.Verified + c.Pending + c.Overdue + c.Exception
}
