package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"voucherflow/internal/models"
	"voucherflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// canonicalTimeFormat is the fixed ISO-8601 form used in the canonical
// string. Second precision, always UTC, so the value is stable across
// database round trips.
const canonicalTimeFormat = "2006-01-02T15:04:05Z"

const signatureHexLength = 64 // SHA-256 digest as lowercase hex

// RotationReport summarizes a secret rotation pass.
type RotationReport struct {
	Resigned int `json:"resigned"`
	Failed   int `json:"failed"`
}

// BatchVerifyResult is one item of an administrative batch check. Items
// are independent; one failure never aborts the rest.
type BatchVerifyResult struct {
	VoucherID uuid.UUID `json:"voucher_id"`
	Valid     bool      `json:"valid"`
	Error     string    `json:"error,omitempty"`
}

// SignatureService owns the tenant signing secrets and every signature
// computation over voucher content. Secrets never leave this service.
type SignatureService interface {
	// Sign computes the keyed digest over the voucher's canonical string
	// and stamps it onto the voucher. The tenant's secret is provisioned
	// lazily on first use.
	Sign(ctx context.Context, voucher *models.Voucher) error
	// Verify recomputes the signature against the voucher's current
	// signable fields and compares in constant time.
	Verify(ctx context.Context, voucher *models.Voucher) (bool, error)
	BatchVerify(ctx context.Context, tenantID uuid.UUID, voucherIDs []uuid.UUID) ([]BatchVerifyResult, error)
	// RotateSecret generates fresh secret material, re-signs every
	// voucher the tenant owns, and swaps the active secret inside one
	// tenant-exclusive transaction. Concurrent verification sees either
	// the old secret with old signatures or the new with new, never a mix.
	RotateSecret(ctx context.Context, tenantID uuid.UUID) (RotationReport, error)
}

type signatureService struct {
	db          repositories.Database
	secretRepo  repositories.SigningSecretRepository
	voucherRepo repositories.VoucherRepository
	cipher      *SecretCipher
}

func NewSignatureService(
	db repositories.Database,
	secretRepo repositories.SigningSecretRepository,
	voucherRepo repositories.VoucherRepository,
	cipher *SecretCipher,
) SignatureService {
	return &signatureService{
		db:          db,
		secretRepo:  secretRepo,
		voucherRepo: voucherRepo,
		cipher:      cipher,
	}
}

// canonicalString flattens the voucher's signable fields into one
// deterministic pipe-delimited string. Field order is fixed; new fields
// may only ever be appended, or every previously issued signature breaks.
func canonicalString(v *models.Voucher) string {
	return strings.Join([]string{
		v.VoucherNumber,
		v.CompanyID.String(),
		v.TenantID.String(),
		v.PayeeID.String(),
		v.Amount.StringFixed(2),
		v.PaymentMode,
		v.HeadOfAccount,
		v.CreatedAt.UTC().Format(canonicalTimeFormat),
		v.CreatedBy.String(),
	}, "|")
}

// computeSignature produces the 64-character lowercase hex HMAC-SHA256.
func computeSignature(canonical string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares in constant time. A length mismatch means the
// stored value cannot be a valid digest; short-circuit to false.
func verifySignature(canonical string, secret []byte, stored string) bool {
	if len(stored) != signatureHexLength {
		return false
	}
	expected := computeSignature(canonical, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) == 1
}

// tenantSecret loads and unseals the tenant's active secret, provisioning
// one on first use.
func (s *signatureService) tenantSecret(ctx context.Context, tenantID uuid.UUID) ([]byte, error) {
	record, err := s.secretRepo.GetActive(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.provisionSecret(ctx, tenantID)
		}
		return nil, err
	}
	return s.cipher.Open(record.Ciphertext, record.Nonce)
}

func (s *signatureService) provisionSecret(ctx context.Context, tenantID uuid.UUID) ([]byte, error) {
	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, err
	}
	ciphertext, nonce, err := s.cipher.Seal(material)
	if err != nil {
		return nil, err
	}
	record := &models.SigningSecret{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Ciphertext: ciphertext,
		Nonce:      nonce,
	}
	if err := s.secretRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *signatureService) Sign(ctx context.Context, voucher *models.Voucher) error {
	secret, err := s.tenantSecret(ctx, voucher.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load signing secret: %w", err)
	}

	signature := computeSignature(canonicalString(voucher), secret)
	signedAt := time.Now().UTC()
	voucher.DigitalSignature = &signature
	voucher.SignatureTimestamp = &signedAt
	return nil
}

func (s *signatureService) Verify(ctx context.Context, voucher *models.Voucher) (bool, error) {
	if voucher.DigitalSignature == nil {
		return false, nil
	}
	secret, err := s.tenantSecret(ctx, voucher.TenantID)
	if err != nil {
		return false, fmt.Errorf("failed to load signing secret: %w", err)
	}
	return verifySignature(canonicalString(voucher), secret, *voucher.DigitalSignature), nil
}

func (s *signatureService) BatchVerify(ctx context.Context, tenantID uuid.UUID, voucherIDs []uuid.UUID) ([]BatchVerifyResult, error) {
	secret, err := s.tenantSecret(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing secret: %w", err)
	}

	results := make([]BatchVerifyResult, 0, len(voucherIDs))
	for _, id := range voucherIDs {
		result := BatchVerifyResult{VoucherID: id}

		voucher, err := s.voucherRepo.GetByID(ctx, tenantID, id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			result.Error = "voucher not found"
		case err != nil:
			result.Error = "lookup failed"
		case voucher.DigitalSignature == nil:
			result.Error = "voucher is unsigned"
		default:
			result.Valid = verifySignature(canonicalString(voucher), secret, *voucher.DigitalSignature)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *signatureService) RotateSecret(ctx context.Context, tenantID uuid.UUID) (RotationReport, error) {
	newMaterial := make([]byte, 32)
	if _, err := rand.Read(newMaterial); err != nil {
		return RotationReport{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return RotationReport{}, err
	}
	defer tx.Rollback(ctx)

	// Tenant-exclusive section: the advisory lock serializes rotations,
	// and the single commit swaps secret and signatures atomically.
	if err := s.secretRepo.LockTenantTx(ctx, tx, tenantID); err != nil {
		return RotationReport{}, err
	}

	vouchers, err := s.voucherRepo.ListAllByTenantTx(ctx, tx, tenantID)
	if err != nil {
		return RotationReport{}, err
	}

	var report RotationReport
	signedAt := time.Now().UTC()
	for _, voucher := range vouchers {
		signature := computeSignature(canonicalString(voucher), newMaterial)
		rows, err := s.voucherRepo.UpdateSignatureTx(ctx, tx, tenantID, voucher.ID, signature, signedAt)
		if err != nil {
			return RotationReport{}, fmt.Errorf("re-signing voucher %s: %w", voucher.VoucherNumber, err)
		}
		if rows == 0 {
			report.Failed++
			continue
		}
		report.Resigned++
	}

	ciphertext, nonce, err := s.cipher.Seal(newMaterial)
	if err != nil {
		return RotationReport{}, err
	}
	record := &models.SigningSecret{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Ciphertext: ciphertext,
		Nonce:      nonce,
	}
	if err := s.secretRepo.UpsertTx(ctx, tx, record); err != nil {
		return RotationReport{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return RotationReport{}, err
	}
	return report, nil
}
