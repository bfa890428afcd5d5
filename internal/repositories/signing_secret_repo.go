package repositories

import (
	"context"

	"voucherflow/internal/models"

	"github.com/google/uuid"
)

type SigningSecretRepository interface {
	Create(ctx context.Context, secret *models.SigningSecret) error
	GetActive(ctx context.Context, tenantID uuid.UUID) (*models.SigningSecret, error)
	// UpsertTx swaps the tenant's active secret inside a caller-owned
	// transaction; used by rotation so the swap commits atomically with
	// the re-signed vouchers.
	UpsertTx(ctx context.Context, tx DBTX, secret *models.SigningSecret) error
	// LockTenantTx takes the tenant-scoped advisory lock for the duration
	// of the transaction. Rotation holds it so concurrent rotations of
	// the same tenant serialize; verification reads stay consistent
	// because the secret swap and re-signing commit together.
	LockTenantTx(ctx context.Context, tx DBTX, tenantID uuid.UUID) error
}

type signingSecretRepo struct {
	db Database
}

func NewSigningSecretRepo(db Database) SigningSecretRepository {
	return &signingSecretRepo{db: db}
}

func (r *signingSecretRepo) Create(ctx context.Context, secret *models.SigningSecret) error {
	query := `
		INSERT INTO signing_secrets (id, tenant_id, ciphertext, nonce, rotated_at, created_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, secret.ID, secret.TenantID, secret.Ciphertext, secret.Nonce)
	return err
}

func (r *signingSecretRepo) GetActive(ctx context.Context, tenantID uuid.UUID) (*models.SigningSecret, error) {
	secret := &models.SigningSecret{}
	query := `
		SELECT id, tenant_id, ciphertext, nonce, rotated_at, created_at
		FROM signing_secrets
		WHERE tenant_id = $1
	`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&secret.ID, &secret.TenantID, &secret.Ciphertext, &secret.Nonce,
		&secret.RotatedAt, &secret.CreatedAt)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (r *signingSecretRepo) UpsertTx(ctx context.Context, tx DBTX, secret *models.SigningSecret) error {
	query := `
		INSERT INTO signing_secrets (id, tenant_id, ciphertext, nonce, rotated_at, created_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (tenant_id) DO UPDATE
		SET ciphertext = EXCLUDED.ciphertext, nonce = EXCLUDED.nonce, rotated_at = NOW()
	`
	_, err := tx.Exec(ctx, query, secret.ID, secret.TenantID, secret.Ciphertext, secret.Nonce)
	return err
}

func (r *signingSecretRepo) LockTenantTx(ctx context.Context, tx DBTX, tenantID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, tenantID.String())
	return err
}
