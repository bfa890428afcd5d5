package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"voucherflow/internal/common"
	"voucherflow/internal/models"
	"voucherflow/internal/repositories"
	"voucherflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// otpValidityWindow is the policy this core owns: codes confirmed later
// than this after otp_sent_at are refused regardless of the store's TTL.
const otpValidityWindow = 10 * time.Minute

// signaturePrefixLength is how much of a signature the public status
// endpoint reveals.
const signaturePrefixLength = 8

// CreateVoucherInput carries the caller-supplied voucher content.
type CreateVoucherInput struct {
	VoucherNumber string          `json:"voucher_number"`
	CompanyID     uuid.UUID       `json:"company_id"`
	PayeeID       uuid.UUID       `json:"payee_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMode   string          `json:"payment_mode"`
	HeadOfAccount string          `json:"head_of_account"`
	Description   *string         `json:"description"`
}

// UpdateVoucherInput carries a partial edit; nil fields are unchanged.
type UpdateVoucherInput struct {
	CompanyID     *uuid.UUID       `json:"company_id"`
	PayeeID       *uuid.UUID       `json:"payee_id"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      *string          `json:"currency"`
	PaymentMode   *string          `json:"payment_mode"`
	HeadOfAccount *string          `json:"head_of_account"`
	Description   *string          `json:"description"`
}

// SignatureStatus is the public, unauthenticated verification summary.
// It exposes only a short signature prefix, never the full value.
type SignatureStatus struct {
	VoucherNumber   string     `json:"voucher_number"`
	Status          string     `json:"status"`
	Signed          bool       `json:"signed"`
	SignaturePrefix string     `json:"signature_prefix,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
}

// VoucherService owns the voucher lifecycle. Every mutating operation
// runs the same gauntlet: role capability check, license/quota gate where
// the action is metered, state machine transition, integrity check where
// the step is irreversible, and an audit record.
type VoucherService interface {
	Create(ctx context.Context, input CreateVoucherInput) (*models.Voucher, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	List(ctx context.Context, filters models.VoucherFilters) ([]*models.Voucher, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateVoucherInput) (*models.Voucher, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Voucher, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Voucher, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RequestCode(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	ConfirmCode(ctx context.Context, id uuid.UUID, code string) (*models.Voucher, error)
	// VerifySignature is the authenticated re-verification surface; every
	// call is logged, and a mismatch raises a security event.
	VerifySignature(ctx context.Context, id uuid.UUID) (bool, error)
	// PublicSignatureStatus backs the unauthenticated verification flow.
	PublicSignatureStatus(ctx context.Context, id uuid.UUID) (*SignatureStatus, error)
}

type voucherService struct {
	db           repositories.Database
	voucherRepo  repositories.VoucherRepository
	signatureSvc SignatureService
	licenseSvc   LicenseService
	otpSvc       OTPService
	auditSvc     AuditLogsService
}

func NewVoucherService(
	db repositories.Database,
	voucherRepo repositories.VoucherRepository,
	signatureSvc SignatureService,
	licenseSvc LicenseService,
	otpSvc OTPService,
	auditSvc AuditLogsService,
) VoucherService {
	return &voucherService{
		db:           db,
		voucherRepo:  voucherRepo,
		signatureSvc: signatureSvc,
		licenseSvc:   licenseSvc,
		otpSvc:       otpSvc,
		auditSvc:     auditSvc,
	}
}

// transact runs fn inside one transaction. Every state write and its
// audit entry go through here, so they commit or roll back together and
// the trail never lags the voucher.
func (s *voucherService) transact(ctx context.Context, fn func(tx repositories.DBTX) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return common.ErrStorage(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return common.ErrStorage(err)
	}
	return nil
}

type actor struct {
	userID   uuid.UUID
	tenantID uuid.UUID
	role     workflow.Role
	clientIP string
}

func actorFromContext(ctx context.Context) (actor, error) {
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return actor{}, common.ErrValidation("actor", "missing authenticated user")
	}
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return actor{}, common.ErrValidation("tenant", "missing tenant scope")
	}
	rawRole, ok := common.GetRoleFromContext(ctx)
	if !ok {
		return actor{}, common.ErrValidation("role", "missing role claim")
	}
	role, ok := workflow.ParseRole(rawRole)
	if !ok {
		return actor{}, common.ErrValidation("role", fmt.Sprintf("unknown role %q", rawRole))
	}
	return actor{
		userID:   userID,
		tenantID: tenantID,
		role:     role,
		clientIP: common.GetClientIPFromContext(ctx),
	}, nil
}

// transitionError translates workflow refusals into domain errors without
// losing which kind of refusal it was.
func transitionError(err error, from workflow.State, event workflow.Event) error {
	if errors.Is(err, workflow.ErrNotPermitted) {
		return common.ErrForbidden(event.String())
	}
	return common.ErrInvalidTransition(from.String(), event.String())
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.ErrValidation("amount", "must be greater than zero")
	}
	if amount.Exponent() < -2 {
		return common.ErrValidation("amount", "at most two fractional digits are allowed")
	}
	return nil
}

func (s *voucherService) validateCreate(input *CreateVoucherInput) error {
	if err := validateAmount(input.Amount); err != nil {
		return err
	}
	if input.CompanyID == uuid.Nil {
		return common.ErrValidation("company_id", "is required")
	}
	if input.PayeeID == uuid.Nil {
		return common.ErrValidation("payee_id", "is required")
	}
	if len(strings.TrimSpace(input.Currency)) != 3 {
		return common.ErrValidation("currency", "must be a 3-letter code")
	}
	if !models.ValidPaymentMode(input.PaymentMode) {
		return common.ErrValidation("payment_mode", "must be one of cash, bank_transfer, mobile_pay, cheque")
	}
	if strings.TrimSpace(input.HeadOfAccount) == "" {
		return common.ErrValidation("head_of_account", "is required")
	}
	return nil
}

func (s *voucherService) Create(ctx context.Context, input CreateVoucherInput) (*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.Next(workflow.StateNone, workflow.EventCreate, act.role); err != nil {
		return nil, transitionError(err, workflow.StateNone, workflow.EventCreate)
	}

	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	// The quota gate is the entry ticket: an atomic check-and-increment,
	// so concurrent creations near the limit can never overshoot it.
	if _, err := s.licenseSvc.Authorize(ctx, act.tenantID, models.CounterVouchers, act.clientIP); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(input.VoucherNumber)
	if number == "" {
		number, err = generateVoucherNumber()
		if err != nil {
			return nil, common.ErrStorage(err)
		}
	}

	now := time.Now()
	voucher := &models.Voucher{
		ID:            uuid.New(),
		TenantID:      act.tenantID,
		VoucherNumber: number,
		CompanyID:     input.CompanyID,
		PayeeID:       input.PayeeID,
		Amount:        input.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
		PaymentMode:   input.PaymentMode,
		HeadOfAccount: strings.TrimSpace(input.HeadOfAccount),
		Description:   input.Description,
		// Creation lands directly in pending approval; there is no draft
		// step on this path.
		Status:    workflow.StatePendingApproval.String(),
		Version:   1,
		CreatedBy: act.userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.signatureSvc.Sign(ctx, voucher); err != nil {
		return nil, common.ErrStorage(err)
	}

	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.voucherRepo.CreateTx(ctx, tx, voucher); err != nil {
			if errors.Is(err, repositories.ErrDuplicateVoucherNumber) {
				return common.ErrValidation("voucher_number", "is already in use for this tenant")
			}
			return common.ErrStorage(err)
		}
		after := voucher.Status
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionCreated, nil, &after, models.JSONB{
			"voucher_number": voucher.VoucherNumber,
			"amount":         voucher.Amount.StringFixed(2),
			"payment_mode":   voucher.PaymentMode,
		}); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) GetByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, act.tenantID, id)
}

func (s *voucherService) fetch(ctx context.Context, tenantID, id uuid.UUID) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound("voucher")
		}
		return nil, common.ErrStorage(err)
	}
	return voucher, nil
}

func (s *voucherService) List(ctx context.Context, filters models.VoucherFilters) ([]*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.voucherRepo.List(ctx, act.tenantID, filters)
	if err != nil {
		return nil, common.ErrStorage(err)
	}
	return vouchers, nil
}

func (s *voucherService) Update(ctx context.Context, id uuid.UUID, input UpdateVoucherInput) (*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return nil, err
	}

	from := workflow.State(voucher.Status)
	if _, err := workflow.Next(from, workflow.EventUpdate, act.role); err != nil {
		return nil, transitionError(err, from, workflow.EventUpdate)
	}

	signableChanged, err := applyUpdate(voucher, input)
	if err != nil {
		return nil, err
	}

	if signableChanged {
		if err := s.signatureSvc.Sign(ctx, voucher); err != nil {
			return nil, common.ErrStorage(err)
		}
	}

	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.persistTx(ctx, tx, voucher); err != nil {
			return err
		}
		state := voucher.Status
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionModified, &state, &state, models.JSONB{
			"resigned": signableChanged,
		}); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// applyUpdate copies changed fields onto the voucher and reports whether
// any signable field moved.
func applyUpdate(voucher *models.Voucher, input UpdateVoucherInput) (bool, error) {
	signableChanged := false

	if input.CompanyID != nil && *input.CompanyID != voucher.CompanyID {
		if *input.CompanyID == uuid.Nil {
			return false, common.ErrValidation("company_id", "is required")
		}
		voucher.CompanyID = *input.CompanyID
		signableChanged = true
	}
	if input.PayeeID != nil && *input.PayeeID != voucher.PayeeID {
		if *input.PayeeID == uuid.Nil {
			return false, common.ErrValidation("payee_id", "is required")
		}
		voucher.PayeeID = *input.PayeeID
		signableChanged = true
	}
	if input.Amount != nil && !input.Amount.Equal(voucher.Amount) {
		if err := validateAmount(*input.Amount); err != nil {
			return false, err
		}
		voucher.Amount = *input.Amount
		signableChanged = true
	}
	if input.PaymentMode != nil && *input.PaymentMode != voucher.PaymentMode {
		if !models.ValidPaymentMode(*input.PaymentMode) {
			return false, common.ErrValidation("payment_mode", "must be one of cash, bank_transfer, mobile_pay, cheque")
		}
		voucher.PaymentMode = *input.PaymentMode
		signableChanged = true
	}
	if input.HeadOfAccount != nil && *input.HeadOfAccount != voucher.HeadOfAccount {
		if strings.TrimSpace(*input.HeadOfAccount) == "" {
			return false, common.ErrValidation("head_of_account", "is required")
		}
		voucher.HeadOfAccount = strings.TrimSpace(*input.HeadOfAccount)
		signableChanged = true
	}
	if input.Currency != nil && *input.Currency != voucher.Currency {
		if len(strings.TrimSpace(*input.Currency)) != 3 {
			return false, common.ErrValidation("currency", "must be a 3-letter code")
		}
		voucher.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.Description != nil {
		voucher.Description = input.Description
	}

	return signableChanged, nil
}

// persistTx writes the voucher guarded by the version it was read at,
// translating an optimistic-lock miss into Conflict.
func (s *voucherService) persistTx(ctx context.Context, tx repositories.DBTX, voucher *models.Voucher) error {
	err := s.voucherRepo.UpdateTx(ctx, tx, voucher, voucher.Version)
	if err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			return common.ErrConflict("voucher")
		}
		return common.ErrStorage(err)
	}
	return nil
}

func (s *voucherService) Approve(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return nil, err
	}

	from := workflow.State(voucher.Status)
	to, err := workflow.Next(from, workflow.EventApprove, act.role)
	if err != nil {
		return nil, transitionError(err, from, workflow.EventApprove)
	}

	// The irreversible step: content must still match its signature. A
	// mismatch is treated as possible tampering and recorded as a
	// security incident, not a routine audit entry.
	valid, err := s.signatureSvc.Verify(ctx, voucher)
	if err != nil {
		return nil, common.ErrStorage(err)
	}
	if !valid {
		if err := s.auditSvc.RecordSecurityEvent(ctx, act.tenantID, &voucher.ID, models.AuditActionTampering, models.JSONB{
			"voucher_number": voucher.VoucherNumber,
			"attempted":      workflow.EventApprove.String(),
		}); err != nil {
			return nil, common.ErrStorage(err)
		}
		return nil, common.ErrIntegrity(voucher.VoucherNumber)
	}

	now := time.Now()
	voucher.Status = to.String()
	voucher.ApprovedBy = &act.userID
	voucher.ApprovedAt = &now

	before, after := from.String(), to.String()
	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.persistTx(ctx, tx, voucher); err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionApproved, &before, &after, nil); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Voucher, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, common.ErrValidation("reason", "a rejection reason is required")
	}

	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return nil, err
	}

	from := workflow.State(voucher.Status)
	to, err := workflow.Next(from, workflow.EventReject, act.role)
	if err != nil {
		return nil, transitionError(err, from, workflow.EventReject)
	}

	now := time.Now()
	reason = strings.TrimSpace(reason)
	voucher.Status = to.String()
	voucher.RejectedBy = &act.userID
	voucher.RejectedAt = &now
	voucher.RejectionReason = &reason

	before, after := from.String(), to.String()
	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.persistTx(ctx, tx, voucher); err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionRejected, &before, &after, models.JSONB{
			"reason": reason,
		}); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Voucher, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, common.ErrValidation("reason", "a cancellation reason is required")
	}

	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return nil, err
	}

	from := workflow.State(voucher.Status)
	to, err := workflow.Next(from, workflow.EventCancel, act.role)
	if err != nil {
		return nil, transitionError(err, from, workflow.EventCancel)
	}

	now := time.Now()
	reason = strings.TrimSpace(reason)
	voucher.Status = to.String()
	voucher.CancelledBy = &act.userID
	voucher.CancelledAt = &now
	voucher.CancellationReason = &reason

	before, after := from.String(), to.String()
	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.persistTx(ctx, tx, voucher); err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionCancelled, &before, &after, models.JSONB{
			"reason": reason,
		}); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) Delete(ctx context.Context, id uuid.UUID) error {
	act, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return err
	}

	from := workflow.State(voucher.Status)
	if _, err := workflow.Next(from, workflow.EventDelete, act.role); err != nil {
		return transitionError(err, from, workflow.EventDelete)
	}

	before := from.String()
	return s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.voucherRepo.DeleteTx(ctx, tx, act.tenantID, id, voucher.Version); err != nil {
			if errors.Is(err, repositories.ErrVersionConflict) {
				return common.ErrConflict("voucher")
			}
			return common.ErrStorage(err)
		}
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionDeleted, &before, nil, nil); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
}

func (s *voucherService) RequestCode(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return nil, err
	}

	from := workflow.State(voucher.Status)
	if _, err := workflow.Next(from, workflow.EventRequestCode, act.role); err != nil {
		return nil, transitionError(err, from, workflow.EventRequestCode)
	}

	// Code delivery is metered against the tenant's SMS credits.
	if _, err := s.licenseSvc.Authorize(ctx, act.tenantID, models.CounterSMS, act.clientIP); err != nil {
		return nil, err
	}

	channel := "payee:" + voucher.PayeeID.String()
	sessionID, err := s.otpSvc.RequestCode(ctx, channel)
	if err != nil {
		return nil, common.ErrStorage(err)
	}

	now := time.Now()
	voucher.OTPSessionID = &sessionID
	voucher.OTPSentAt = &now

	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.persistTx(ctx, tx, voucher); err != nil {
			return err
		}
		state := voucher.Status
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionOTPSent, &state, &state, models.JSONB{
			"channel": channel,
		}); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) ConfirmCode(ctx context.Context, id uuid.UUID, code string) (*models.Voucher, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return nil, err
	}

	from := workflow.State(voucher.Status)
	to, err := workflow.Next(from, workflow.EventConfirmCode, act.role)
	if err != nil {
		return nil, transitionError(err, from, workflow.EventConfirmCode)
	}

	if voucher.OTPSessionID == nil || voucher.OTPSentAt == nil {
		return nil, common.ErrOtpInvalid()
	}
	if time.Since(*voucher.OTPSentAt) > otpValidityWindow {
		return nil, common.ErrOtpExpired()
	}

	ok, err := s.otpSvc.VerifyCode(ctx, *voucher.OTPSessionID, code)
	if err != nil {
		return nil, common.ErrStorage(err)
	}
	if !ok {
		return nil, common.ErrOtpInvalid()
	}

	now := time.Now()
	voucher.Status = to.String()
	voucher.CompletedBy = &act.userID
	voucher.CompletedAt = &now

	before, after := from.String(), to.String()
	err = s.transact(ctx, func(tx repositories.DBTX) error {
		if err := s.persistTx(ctx, tx, voucher); err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(ctx, tx, act.tenantID, &voucher.ID, models.AuditActionCompleted, &before, &after, nil); err != nil {
			return common.ErrStorage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) VerifySignature(ctx context.Context, id uuid.UUID) (bool, error) {
	act, err := actorFromContext(ctx)
	if err != nil {
		return false, err
	}

	voucher, err := s.fetch(ctx, act.tenantID, id)
	if err != nil {
		return false, err
	}

	valid, err := s.signatureSvc.Verify(ctx, voucher)
	if err != nil {
		return false, common.ErrStorage(err)
	}

	if !valid {
		if err := s.auditSvc.RecordSecurityEvent(ctx, act.tenantID, &voucher.ID, models.AuditActionTampering, models.JSONB{
			"voucher_number": voucher.VoucherNumber,
			"attempted":      "manual_verification",
		}); err != nil {
			return false, common.ErrStorage(err)
		}
		return false, nil
	}

	state := voucher.Status
	if err := s.auditSvc.Record(ctx, act.tenantID, &voucher.ID, models.AuditActionVerified, &state, &state, nil); err != nil {
		return false, common.ErrStorage(err)
	}
	return true, nil
}

func (s *voucherService) PublicSignatureStatus(ctx context.Context, id uuid.UUID) (*SignatureStatus, error) {
	voucher, err := s.voucherRepo.GetAnyByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound("voucher")
		}
		return nil, common.ErrStorage(err)
	}

	status := &SignatureStatus{
		VoucherNumber: voucher.VoucherNumber,
		Status:        voucher.Status,
	}
	if sig := common.SafeString(voucher.DigitalSignature); sig != "" {
		status.Signed = true
		// A stored signature shorter than the prefix is corrupt; expose
		// nothing rather than slice past its end.
		if len(sig) >= signaturePrefixLength {
			status.SignaturePrefix = sig[:signaturePrefixLength]
		}
		status.SignedAt = voucher.SignatureTimestamp
	}
	return status, nil
}

// generateVoucherNumber builds a human-readable number; uniqueness within
// the tenant is enforced by the database constraint.
func generateVoucherNumber() (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("VCH-%s-%s", time.Now().UTC().Format("200601"), strings.ToUpper(hex.EncodeToString(suffix))), nil
}
