package company

import "time"

// Size buckets a company by headcount.
type Size string

const (
	SizeMicro      Size = "micro"
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeEnterprise Size = "enterprise"
)

// Valid reports whether the size is one of the known buckets.
func (s Size) Valid() bool {
	switch s {
	case SizeMicro, SizeSmall, SizeMedium, SizeLarge, SizeEnterprise:
		return true
	}
	return false
}

// Company is the tenant's business profile. Exactly one per tenant.
type Company struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry,omitempty"`
	Size          Size      `json:"size,omitempty"`
	Country       string    `json:"country,omitempty"`
	Description   string    `json:"description,omitempty"`
	AnnualRevenue *float64  `json:"annual_revenue,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
