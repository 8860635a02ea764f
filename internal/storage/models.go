package storage

import "time"

type TenantStatus string

const (
	TenantStatusEnabled  TenantStatus = "enabled"
	TenantStatusDisabled TenantStatus = "disabled"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusDenied   ReviewStatus = "denied"
)

// Tenant is an approved device's authorization record, keyed by tenant ID
// in the tenant table.
type Tenant struct {
	Name        string `json:"name" db:"name"`
	HWID        string `json:"hwid" db:"hwid"`
	ResourceURL string `json:"resource_url" db:"resource_url"`
	UsageCount  int64  `json:"usage_count" db:"usage_count"`
	// MaxUsage 0 means unlimited. Reserved for quota enforcement; nothing
	// increments UsageCount yet.
	MaxUsage int64        `json:"max_usage" db:"max_usage"`
	Status   TenantStatus `json:"status" db:"status"`
	// LastAccessTime and ExpiryDate are unix milliseconds. ExpiryDate 0
	// means never expires.
	LastAccessTime int64 `json:"last_access_time" db:"last_access_time"`
	ExpiryDate     int64 `json:"expiry_date" db:"expiry_date"`
}

// AccessRequest is a request ledger entry. One entry exists per distinct
// HWID ever seen; only Status is ever rewritten.
type AccessRequest struct {
	HWID        string       `json:"hwid" db:"hwid"`
	Hostname    string       `json:"hostname" db:"hostname"`
	OS          string       `json:"os" db:"os"`
	SubmittedAt time.Time    `json:"submitted_at" db:"submitted_at"`
	Status      ReviewStatus `json:"status" db:"status"`
}
