package repositories

import (
	"context"
	"errors"
	"fmt"

	"voucherflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type QuotaUsageRepository interface {
	// CheckAndIncrement bumps one counter for (licenseID, yearMonth) only
	// if the result stays within limit. Single statement, so concurrent
	// callers near the limit cannot lose updates: at most `limit`
	// increments ever succeed in a month. Returns false with no row
	// mutation when the limit is already reached.
	CheckAndIncrement(ctx context.Context, licenseID uuid.UUID, yearMonth, counter string, limit int) (bool, error)
	GetUsage(ctx context.Context, licenseID uuid.UUID, yearMonth string) (*models.QuotaUsage, error)
}

type quotaUsageRepo struct {
	db Database
}

func NewQuotaUsageRepo(db Database) QuotaUsageRepository {
	return &quotaUsageRepo{db: db}
}

func (r *quotaUsageRepo) CheckAndIncrement(ctx context.Context, licenseID uuid.UUID, yearMonth, counter string, limit int) (bool, error) {
	if limit < 1 {
		return false, nil
	}

	// counter comes from a closed constant set; it is never caller input.
	var initVouchers, initSMS int
	switch counter {
	case models.CounterVouchers:
		initVouchers = 1
	case models.CounterSMS:
		initSMS = 1
	default:
		return false, fmt.Errorf("unknown quota counter %q", counter)
	}

	query := fmt.Sprintf(`
		INSERT INTO quota_usage (id, license_id, year_month, vouchers_count, sms_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (license_id, year_month) DO UPDATE
		SET %s = quota_usage.%s + 1, updated_at = NOW()
		WHERE quota_usage.%s < $6
		RETURNING %s
	`, counter, counter, counter, counter)

	var newCount int
	err := r.db.QueryRow(ctx, query, uuid.New(), licenseID, yearMonth, initVouchers, initSMS, limit).Scan(&newCount)
	if err != nil {
		// The conditional upsert returns no row when the counter is at the
		// limit; that is a refusal, not a failure.
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *quotaUsageRepo) GetUsage(ctx context.Context, licenseID uuid.UUID, yearMonth string) (*models.QuotaUsage, error) {
	usage := &models.QuotaUsage{}
	query := `
		SELECT id, license_id, year_month, vouchers_count, sms_sent, created_at, updated_at
		FROM quota_usage
		WHERE license_id = $1 AND year_month = $2
	`
	err := r.db.QueryRow(ctx, query, licenseID, yearMonth).Scan(
		&usage.ID, &usage.LicenseID, &usage.YearMonth,
		&usage.VouchersCount, &usage.SMSSent, &usage.CreatedAt, &usage.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row yet this month means zero usage, not an error.
			return &models.QuotaUsage{LicenseID: licenseID, YearMonth: yearMonth}, nil
		}
		return nil, err
	}
	return usage, nil
}
