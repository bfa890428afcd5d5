package models

import (
	"time"

	"github.com/google/uuid"
)

// License status constants
const (
	LicenseStatusPending   = "pending"
	LicenseStatusActive    = "active"
	LicenseStatusSuspended = "suspended"
	LicenseStatusExpired   = "expired"
	LicenseStatusRevoked   = "revoked"
)

// License is a tenant's subscription record defining plan limits and the
// validity window. One license per tenant; created at onboarding and
// mutated only by administrative update or the expiry sweep.
type License struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	TenantID            uuid.UUID `json:"tenant_id" db:"tenant_id"`
	PlanType            string    `json:"plan_type" db:"plan_type"`
	Status              string    `json:"status" db:"status"`
	MaxVouchersPerMonth int       `json:"max_vouchers_per_month" db:"max_vouchers_per_month"`
	SMSCredits          int       `json:"sms_credits" db:"sms_credits"`
	ExpiryDate          time.Time `json:"expiry_date" db:"expiry_date"`
	AllowedIPs          []string  `json:"allowed_ips,omitempty" db:"allowed_ips"`
	HardwareID          *string   `json:"hardware_id,omitempty" db:"hardware_id"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the license validity window has passed at the
// given instant.
func (l *License) Expired(now time.Time) bool {
	return now.After(l.ExpiryDate)
}

// QuotaUsage holds per-license, per-month metered counters. Rows are
// created lazily on first use in a month and incremented only on
// confirmed success, never pre-incremented and rolled back.
type QuotaUsage struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LicenseID     uuid.UUID `json:"license_id" db:"license_id"`
	YearMonth     string    `json:"year_month" db:"year_month"` // "2026-08"
	VouchersCount int       `json:"vouchers_count" db:"vouchers_count"`
	SMSSent       int       `json:"sms_sent" db:"sms_sent"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Quota counter column names, the closed set accepted by the ledger
const (
	CounterVouchers = "vouchers_count"
	CounterSMS      = "sms_sent"
)

// YearMonthOf formats an instant as the quota bucket key
func YearMonthOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
