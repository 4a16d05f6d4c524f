package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// VerificationStatus enumerates the states of a verification record.
type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "Pending"
	VerificationVerified  VerificationStatus = "Verified"
	VerificationOverdue   VerificationStatus = "Overdue"
	VerificationException VerificationStatus = "Exception"
)

// Valid reports whether the value is a known record status.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationOverdue, VerificationException:
		return true
	}
	return false
}

// ExceptionType qualifies why a record landed in Exception.
type ExceptionType string

const (
	ExceptionNoResponse      ExceptionType = "NoResponse"
	ExceptionMismatch        ExceptionType = "Mismatch"
	ExceptionNotWithEmployee ExceptionType = "NotWithEmployee"
	ExceptionMissingDevice   ExceptionType = "MissingDevice"
)

// Valid reports whether the value is a known exception type.
func (e ExceptionType) Valid() bool {
	switch e {
	case ExceptionNoResponse, ExceptionMismatch, ExceptionNotWithEmployee, ExceptionMissingDevice:
		return true
	}
	return false
}

// StringList stores a set of strings as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported list source type %T", src)
	}
}

// VerificationRecord is the unit of work representing one employee's
// obligation to verify one asset within one campaign. The asset id and
// expected tag are fixed at creation; submission and review only touch the
// outcome fields.
type VerificationRecord struct {
	ID           string             `db:"id" json:"id"`
	CampaignID   string             `db:"campaign_id" json:"campaign_id"`
	EmployeeID   string             `db:"employee_id" json:"employee_id"`
	EmployeeName string             `db:"employee_name" json:"employee_name"`
	AssetID      string             `db:"asset_id" json:"asset_id"`
	ExpectedTag  string             `db:"expected_tag" json:"expected_tag"`
	AssetType    AssetType          `db:"asset_type" json:"asset_type"`
	Status       VerificationStatus `db:"status" json:"status"`

	RecordedTag          string         `db:"recorded_tag" json:"recorded_tag,omitempty"`
	EvidenceRef          string         `db:"evidence_ref" json:"evidence_ref,omitempty"`
	PeripheralsConfirmed StringList     `db:"peripherals_confirmed" json:"peripherals_confirmed"`
	PeripheralsNotWithMe StringList     `db:"peripherals_not_with_me" json:"peripherals_not_with_me"`
	Comment              string         `db:"comment" json:"comment,omitempty"`
	SubmittedAt          *time.Time     `db:"submitted_at" json:"submitted_at,omitempty"`
	ReviewedBy           *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ExceptionType        *ExceptionType `db:"exception_type" json:"exception_type,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
