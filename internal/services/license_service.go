package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"voucherflow/internal/caching"
	"voucherflow/internal/common"
	"voucherflow/internal/models"
	"voucherflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const licenseCacheTTL = 5 * time.Minute

// UsageSummary reports a tenant's current-month consumption against its
// plan limits.
type UsageSummary struct {
	PlanType      string    `json:"plan_type"`
	Status        string    `json:"status"`
	YearMonth     string    `json:"year_month"`
	VouchersUsed  int       `json:"vouchers_used"`
	VouchersLimit int       `json:"vouchers_limit"`
	SMSUsed       int       `json:"sms_used"`
	SMSLimit      int       `json:"sms_limit"`
	ExpiryDate    time.Time `json:"expiry_date"`
	TotalVouchers int       `json:"total_vouchers"`
}

// LicenseService is the gate every quota-consuming operation passes
// through. It validates the tenant's license and delegates the atomic
// count-and-increment to the quota ledger.
type LicenseService interface {
	// Authorize validates the license and consumes one unit of the named
	// counter. A refusal is definitive; callers must not retry.
	Authorize(ctx context.Context, tenantID uuid.UUID, counter, clientIP string) (*models.License, error)
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.License, error)
	Usage(ctx context.Context, tenantID uuid.UUID) (*UsageSummary, error)
	// ExpireOverdue moves wall-clock-expired active licenses to expired.
	// Run by the background sweep.
	ExpireOverdue(ctx context.Context, asOf time.Time) (int, error)
}

type licenseService struct {
	licenseRepo repositories.LicenseRepository
	quotaRepo   repositories.QuotaUsageRepository
	voucherRepo repositories.VoucherRepository
	cacheSvc    caching.CacheService
}

func NewLicenseService(
	licenseRepo repositories.LicenseRepository,
	quotaRepo repositories.QuotaUsageRepository,
	voucherRepo repositories.VoucherRepository,
	cacheSvc caching.CacheService,
) LicenseService {
	return &licenseService{
		licenseRepo: licenseRepo,
		quotaRepo:   quotaRepo,
		voucherRepo: voucherRepo,
		cacheSvc:    cacheSvc,
	}
}

func (s *licenseService) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.License, error) {
	if cached, err := s.cacheSvc.GetLicense(ctx, tenantID); err == nil && cached != nil {
		return cached, nil
	}

	license, err := s.licenseRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrLicenseNotFound()
		}
		return nil, common.ErrStorage(err)
	}

	if err := s.cacheSvc.SetLicense(ctx, license, licenseCacheTTL); err != nil {
		log.Printf("WARN: failed to cache license for tenant %s: %v", tenantID, err)
	}
	return license, nil
}

func (s *licenseService) Authorize(ctx context.Context, tenantID uuid.UUID, counter, clientIP string) (*models.License, error) {
	license, err := s.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if license.Status != models.LicenseStatusActive {
		return nil, common.ErrLicenseInactive(license.Status)
	}

	if license.Expired(time.Now()) {
		// Expiry is observed lazily: flip the status as a side effect so
		// subsequent requests fail fast, then refuse this one.
		if err := s.licenseRepo.UpdateStatus(ctx, license.ID, models.LicenseStatusExpired); err != nil {
			log.Printf("WARN: failed to mark license %s expired: %v", license.ID, err)
		}
		if err := s.cacheSvc.DeleteLicense(ctx, tenantID); err != nil {
			log.Printf("WARN: failed to invalidate license cache for tenant %s: %v", tenantID, err)
		}
		return nil, common.ErrLicenseExpired()
	}

	if len(license.AllowedIPs) > 0 && !ipAllowed(clientIP, license.AllowedIPs) {
		return nil, common.ErrLicenseRestricted(fmt.Sprintf("client address %s is not on the allow-list", clientIP))
	}

	limit, label := s.counterLimit(license, counter)
	allowed, err := s.quotaRepo.CheckAndIncrement(ctx, license.ID, models.YearMonthOf(time.Now()), counter, limit)
	if err != nil {
		return nil, common.ErrStorage(err)
	}
	if !allowed {
		return nil, common.ErrQuotaExceeded(label, license.PlanType, limit)
	}
	return license, nil
}

func (s *licenseService) counterLimit(license *models.License, counter string) (int, string) {
	switch counter {
	case models.CounterSMS:
		return license.SMSCredits, "SMS"
	default:
		return license.MaxVouchersPerMonth, "voucher"
	}
}

func ipAllowed(clientIP string, allowed []string) bool {
	for _, ip := range allowed {
		if ip == clientIP {
			return true
		}
	}
	return false
}

func (s *licenseService) Usage(ctx context.Context, tenantID uuid.UUID) (*UsageSummary, error) {
	license, err := s.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	yearMonth := models.YearMonthOf(time.Now())
	usage, err := s.quotaRepo.GetUsage(ctx, license.ID, yearMonth)
	if err != nil {
		return nil, common.ErrStorage(err)
	}

	total, err := s.voucherRepo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, common.ErrStorage(err)
	}

	return &UsageSummary{
		PlanType:      license.PlanType,
		Status:        license.Status,
		YearMonth:     yearMonth,
		VouchersUsed:  usage.VouchersCount,
		VouchersLimit: license.MaxVouchersPerMonth,
		SMSUsed:       usage.SMSSent,
		SMSLimit:      license.SMSCredits,
		ExpiryDate:    license.ExpiryDate,
		TotalVouchers: total,
	}, nil
}

func (s *licenseService) ExpireOverdue(ctx context.Context, asOf time.Time) (int, error) {
	expired, err := s.licenseRepo.ListExpired(ctx, asOf)
	if err != nil {
		return 0, err
	}

	var count int
	for _, license := range expired {
		if err := s.licenseRepo.UpdateStatus(ctx, license.ID, models.LicenseStatusExpired); err != nil {
			log.Printf("WARN: expiry sweep failed for license %s: %v", license.ID, err)
			continue
		}
		if err := s.cacheSvc.DeleteLicense(ctx, license.TenantID); err != nil {
			log.Printf("WARN: failed to invalidate license cache for tenant %s: %v", license.TenantID, err)
		}
		count++
	}
	return count, nil
}
