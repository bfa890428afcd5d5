package repositories

import (
	"context"
	"time"

	"voucherflow/internal/models"

	"github.com/google/uuid"
)

type LicenseRepository interface {
	Create(ctx context.Context, license *models.License) error
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.License, error)
	Update(ctx context.Context, license *models.License) error
	UpdateStatus(ctx context.Context, licenseID uuid.UUID, status string) error
	// ListExpired returns active licenses whose validity window has passed,
	// for the background expiry sweep.
	ListExpired(ctx context.Context, asOf time.Time) ([]*models.License, error)
	// ListTenants returns every tenant that holds a license.
	ListTenants(ctx context.Context) ([]uuid.UUID, error)
}

type licenseRepo struct {
	db Database
}

func NewLicenseRepo(db Database) LicenseRepository {
	return &licenseRepo{db: db}
}

const licenseColumns = `id, tenant_id, plan_type, status, max_vouchers_per_month, sms_credits,
		expiry_date, allowed_ips, hardware_id, created_at, updated_at`

func (r *licenseRepo) Create(ctx context.Context, license *models.License) error {
	query := `
		INSERT INTO licenses (id, tenant_id, plan_type, status, max_vouchers_per_month, sms_credits,
			expiry_date, allowed_ips, hardware_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, license.ID, license.TenantID, license.PlanType, license.Status,
		license.MaxVouchersPerMonth, license.SMSCredits, license.ExpiryDate,
		license.AllowedIPs, license.HardwareID)
	return err
}

func (r *licenseRepo) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.License, error) {
	license := &models.License{}
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE tenant_id = $1`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&license.ID, &license.TenantID, &license.PlanType, &license.Status,
		&license.MaxVouchersPerMonth, &license.SMSCredits, &license.ExpiryDate,
		&license.AllowedIPs, &license.HardwareID, &license.CreatedAt, &license.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return license, nil
}

func (r *licenseRepo) Update(ctx context.Context, license *models.License) error {
	query := `
		UPDATE licenses
		SET plan_type = $1, status = $2, max_vouchers_per_month = $3, sms_credits = $4,
			expiry_date = $5, allowed_ips = $6, hardware_id = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	_, err := r.db.Exec(ctx, query, license.PlanType, license.Status, license.MaxVouchersPerMonth,
		license.SMSCredits, license.ExpiryDate, license.AllowedIPs, license.HardwareID,
		license.TenantID, license.ID)
	return err
}

func (r *licenseRepo) UpdateStatus(ctx context.Context, licenseID uuid.UUID, status string) error {
	query := `UPDATE licenses SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, licenseID)
	return err
}

func (r *licenseRepo) ListExpired(ctx context.Context, asOf time.Time) ([]*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE status = $1 AND expiry_date < $2`
	rows, err := r.db.Query(ctx, query, models.LicenseStatusActive, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenses []*models.License
	for rows.Next() {
		license := &models.License{}
		if err := rows.Scan(
			&license.ID, &license.TenantID, &license.PlanType, &license.Status,
			&license.MaxVouchersPerMonth, &license.SMSCredits, &license.ExpiryDate,
			&license.AllowedIPs, &license.HardwareID, &license.CreatedAt, &license.UpdatedAt); err != nil {
			return nil, err
		}
		licenses = append(licenses, license)
	}
	return licenses, rows.Err()
}

func (r *licenseRepo) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT tenant_id FROM licenses ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []uuid.UUID
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantID)
	}
	return tenants, rows.Err()
}
