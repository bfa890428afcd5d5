package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"voucherflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the postgres error code for a unique constraint hit.
const pgUniqueViolation = "23505"

type VoucherRepository interface {
	// CreateTx inserts a voucher inside a caller-owned transaction so the
	// row and its audit entry commit together. A tenant-unique voucher
	// number collision maps to ErrDuplicateVoucherNumber.
	CreateTx(ctx context.Context, tx DBTX, voucher *models.Voucher) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Voucher, error)
	// GetAnyByID looks a voucher up without tenant scoping. Used only by
	// the public signature-status flow, which exposes no voucher content.
	GetAnyByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	List(ctx context.Context, tenantID uuid.UUID, filters models.VoucherFilters) ([]*models.Voucher, error)
	// UpdateTx writes the full mutable column set guarded by the version
	// the caller read, inside a caller-owned transaction;
	// ErrVersionConflict means the row moved underneath them.
	UpdateTx(ctx context.Context, tx DBTX, voucher *models.Voucher, expectedVersion int) error
	DeleteTx(ctx context.Context, tx DBTX, tenantID, id uuid.UUID, expectedVersion int) error
	// ListAllByTenantTx reads every voucher of a tenant inside a
	// caller-owned transaction (secret rotation).
	ListAllByTenantTx(ctx context.Context, tx DBTX, tenantID uuid.UUID) ([]*models.Voucher, error)
	// UpdateSignatureTx re-signs one voucher inside a caller-owned
	// transaction; returns the number of rows written.
	UpdateSignatureTx(ctx context.Context, tx DBTX, tenantID, id uuid.UUID, signature string, signedAt time.Time) (int64, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type voucherRepo struct {
	db Database
}

func NewVoucherRepo(db Database) VoucherRepository {
	return &voucherRepo{db: db}
}

const voucherColumns = `id, tenant_id, voucher_number, company_id, payee_id, amount, currency,
		payment_mode, head_of_account, description, digital_signature, signature_timestamp,
		status, version, created_by, created_at, updated_at,
		approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
		cancelled_by, cancelled_at, cancellation_reason, completed_by, completed_at,
		otp_session_id, otp_sent_at`

func scanVoucher(row pgx.Row) (*models.Voucher, error) {
	v := &models.Voucher{}
	err := row.Scan(
		&v.ID, &v.TenantID, &v.VoucherNumber, &v.CompanyID, &v.PayeeID, &v.Amount, &v.Currency,
		&v.PaymentMode, &v.HeadOfAccount, &v.Description, &v.DigitalSignature, &v.SignatureTimestamp,
		&v.Status, &v.Version, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
		&v.ApprovedBy, &v.ApprovedAt, &v.RejectedBy, &v.RejectedAt, &v.RejectionReason,
		&v.CancelledBy, &v.CancelledAt, &v.CancellationReason, &v.CompletedBy, &v.CompletedAt,
		&v.OTPSessionID, &v.OTPSentAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *voucherRepo) CreateTx(ctx context.Context, tx DBTX, voucher *models.Voucher) error {
	query := `
		INSERT INTO vouchers (id, tenant_id, voucher_number, company_id, payee_id, amount, currency,
			payment_mode, head_of_account, description, digital_signature, signature_timestamp,
			status, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`
	_, err := tx.Exec(ctx, query,
		voucher.ID, voucher.TenantID, voucher.VoucherNumber, voucher.CompanyID, voucher.PayeeID,
		voucher.Amount, voucher.Currency, voucher.PaymentMode, voucher.HeadOfAccount,
		voucher.Description, voucher.DigitalSignature, voucher.SignatureTimestamp,
		voucher.Status, voucher.Version, voucher.CreatedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateVoucherNumber
	}
	return err
}

func (r *voucherRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE tenant_id = $1 AND id = $2`
	return scanVoucher(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *voucherRepo) GetAnyByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE id = $1`
	return scanVoucher(r.db.QueryRow(ctx, query, id))
}

func (r *voucherRepo) List(ctx context.Context, tenantID uuid.UUID, filters models.VoucherFilters) ([]*models.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filters.Status != nil {
		args = append(args, *filters.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filters.StartDate != nil {
		args = append(args, *filters.StartDate)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filters.EndDate != nil {
		args = append(args, *filters.EndDate)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	args = append(args, filters.Limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []*models.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

func (r *voucherRepo) UpdateTx(ctx context.Context, tx DBTX, voucher *models.Voucher, expectedVersion int) error {
	query := `
		UPDATE vouchers
		SET company_id = $1, payee_id = $2, amount = $3, currency = $4, payment_mode = $5,
			head_of_account = $6, description = $7, digital_signature = $8, signature_timestamp = $9,
			status = $10, version = version + 1,
			approved_by = $11, approved_at = $12, rejected_by = $13, rejected_at = $14,
			rejection_reason = $15, cancelled_by = $16, cancelled_at = $17, cancellation_reason = $18,
			completed_by = $19, completed_at = $20, otp_session_id = $21, otp_sent_at = $22,
			updated_at = NOW()
		WHERE tenant_id = $23 AND id = $24 AND version = $25
	`
	tag, err := tx.Exec(ctx, query,
		voucher.CompanyID, voucher.PayeeID, voucher.Amount, voucher.Currency, voucher.PaymentMode,
		voucher.HeadOfAccount, voucher.Description, voucher.DigitalSignature, voucher.SignatureTimestamp,
		voucher.Status,
		voucher.ApprovedBy, voucher.ApprovedAt, voucher.RejectedBy, voucher.RejectedAt,
		voucher.RejectionReason, voucher.CancelledBy, voucher.CancelledAt, voucher.CancellationReason,
		voucher.CompletedBy, voucher.CompletedAt, voucher.OTPSessionID, voucher.OTPSentAt,
		voucher.TenantID, voucher.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	voucher.Version = expectedVersion + 1
	return nil
}

func (r *voucherRepo) DeleteTx(ctx context.Context, tx DBTX, tenantID, id uuid.UUID, expectedVersion int) error {
	query := `DELETE FROM vouchers WHERE tenant_id = $1 AND id = $2 AND version = $3`
	tag, err := tx.Exec(ctx, query, tenantID, id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *voucherRepo) ListAllByTenantTx(ctx context.Context, tx DBTX, tenantID uuid.UUID) ([]*models.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE tenant_id = $1 ORDER BY created_at`
	rows, err := tx.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []*models.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

func (r *voucherRepo) UpdateSignatureTx(ctx context.Context, tx DBTX, tenantID, id uuid.UUID, signature string, signedAt time.Time) (int64, error) {
	query := `
		UPDATE vouchers
		SET digital_signature = $1, signature_timestamp = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4
	`
	tag, err := tx.Exec(ctx, query, signature, signedAt, tenantID, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *voucherRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vouchers WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}
