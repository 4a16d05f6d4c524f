package models

import "time"

// VerificationToken is a single-use, time-boxed credential letting an
// employee submit evidence for a campaign without authenticating. Tokens
// reference their campaign and employee by identifier only; a deleted
// campaign leaves its tokens behind, inert.
type VerificationToken struct {
	ID            string     `db:"id" json:"id"`
	Secret        string     `db:"secret" json:"secret"`
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	EmployeeName  string     `db:"employee_name" json:"employee_name"`
	EmployeeEmail string     `db:"employee_email" json:"employee_email"`
	CampaignID    string     `db:"campaign_id" json:"campaign_id"`
	CampaignName  string     `db:"campaign_name" json:"campaign_name"`
	AssetIDs      StringList `db:"asset_ids" json:"asset_ids"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	Used          bool       `db:"used" json:"used"`
	UsedAt        *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// ValidAt reports whether the token can still be redeemed at the given
// instant: never used and not yet expired.
func (t *VerificationToken) ValidAt(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
