package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB is a generic JSON object column
type JSONB map[string]interface{}

// AuditLog is one immutable, append-only record of a transition attempt
// or outcome. Entries are never updated or deleted.
type AuditLog struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	VoucherID   *uuid.UUID `json:"voucher_id,omitempty" db:"voucher_id"`
	Action      string     `json:"action" db:"action"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"`
	ActorName   string     `json:"actor_name" db:"actor_name"`
	ActorRole   string     `json:"actor_role" db:"actor_role"`
	BeforeState *string    `json:"before_state,omitempty" db:"before_state"`
	AfterState  *string    `json:"after_state,omitempty" db:"after_state"`
	Detail      JSONB      `json:"detail,omitempty" db:"detail"`
	ClientIP    string     `json:"client_ip" db:"client_ip"`
	UserAgent   string     `json:"user_agent" db:"user_agent"`
	Security    bool       `json:"security" db:"security"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Audit action constants for voucher lifecycle records
const (
	AuditActionCreated   = "created"
	AuditActionModified  = "modified"
	AuditActionApproved  = "approved"
	AuditActionRejected  = "rejected"
	AuditActionCancelled = "cancelled"
	AuditActionCompleted = "completed"
	AuditActionDeleted   = "deleted"
	AuditActionOTPSent   = "otp_sent"
	AuditActionVerified  = "signature_verified"

	// AuditActionTampering marks a security incident: a signature that no
	// longer matches the voucher's signable content.
	AuditActionTampering = "integrity_violation"

	AuditActionSecretRotated = "secret_rotated"
)

// AuditLogFilters represents filters for querying the trail
type AuditLogFilters struct {
	VoucherID    *uuid.UUID `json:"voucher_id"`
	Action       *string    `json:"action"`
	ActorID      *uuid.UUID `json:"actor_id"`
	SecurityOnly bool       `json:"security_only"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}
