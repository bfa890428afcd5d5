package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment mode constants for vouchers
const (
	PaymentModeCash         = "cash"
	PaymentModeBankTransfer = "bank_transfer"
	PaymentModeMobilePay    = "mobile_pay"
	PaymentModeCheque       = "cheque"
)

var validPaymentModes = map[string]bool{
	PaymentModeCash:         true,
	PaymentModeBankTransfer: true,
	PaymentModeMobilePay:    true,
	PaymentModeCheque:       true,
}

// ValidPaymentMode reports whether the mode is one of the supported values
func ValidPaymentMode(mode string) bool {
	return validPaymentModes[mode]
}

// Voucher is a tenant-scoped payment request moving through the approval
// workflow. Amount uses exact decimal arithmetic, never floats. Version
// backs optimistic locking; every mutation bumps it.
type Voucher struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	VoucherNumber string          `json:"voucher_number" db:"voucher_number"`
	CompanyID     uuid.UUID       `json:"company_id" db:"company_id"`
	PayeeID       uuid.UUID       `json:"payee_id" db:"payee_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	PaymentMode   string          `json:"payment_mode" db:"payment_mode"`
	HeadOfAccount string          `json:"head_of_account" db:"head_of_account"`
	Description   *string         `json:"description" db:"description"`

	DigitalSignature   *string    `json:"digital_signature,omitempty" db:"digital_signature"`
	SignatureTimestamp *time.Time `json:"signature_timestamp,omitempty" db:"signature_timestamp"`

	Status  string `json:"status" db:"status"`
	Version int    `json:"version" db:"version"`

	CreatedBy          uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	ApprovedBy         *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy         *uuid.UUID `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason    *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CancelledBy        *uuid.UUID `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CompletedBy        *uuid.UUID `json:"completed_by,omitempty" db:"completed_by"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	OTPSessionID *string    `json:"otp_session_id,omitempty" db:"otp_session_id"`
	OTPSentAt    *time.Time `json:"otp_sent_at,omitempty" db:"otp_sent_at"`
}

// VoucherFilters represents filters for listing vouchers
type VoucherFilters struct {
	Status    *string    `json:"status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
