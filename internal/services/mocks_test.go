package services

import (
	"context"
	"io"
	"time"

	"voucherflow/internal/models"
	"voucherflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) CreateTx(ctx context.Context, tx repositories.DBTX, voucher *models.Voucher) error {
	args := m.Called(ctx, tx, voucher)
	return args.Error(0)
}

func (m *MockVoucherRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Voucher, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) GetAnyByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) List(ctx context.Context, tenantID uuid.UUID, filters models.VoucherFilters) ([]*models.Voucher, error) {
	args := m.Called(ctx, tenantID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) UpdateTx(ctx context.Context, tx repositories.DBTX, voucher *models.Voucher, expectedVersion int) error {
	args := m.Called(ctx, tx, voucher, expectedVersion)
	return args.Error(0)
}

func (m *MockVoucherRepository) DeleteTx(ctx context.Context, tx repositories.DBTX, tenantID, id uuid.UUID, expectedVersion int) error {
	args := m.Called(ctx, tx, tenantID, id, expectedVersion)
	return args.Error(0)
}

func (m *MockVoucherRepository) ListAllByTenantTx(ctx context.Context, tx repositories.DBTX, tenantID uuid.UUID) ([]*models.Voucher, error) {
	args := m.Called(ctx, tx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) UpdateSignatureTx(ctx context.Context, tx repositories.DBTX, tenantID, id uuid.UUID, signature string, signedAt time.Time) (int64, error) {
	args := m.Called(ctx, tx, tenantID, id, signature, signedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoucherRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type MockLicenseRepository struct {
	mock.Mock
}

func (m *MockLicenseRepository) Create(ctx context.Context, license *models.License) error {
	args := m.Called(ctx, license)
	return args.Error(0)
}

func (m *MockLicenseRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.License, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.License), args.Error(1)
}

func (m *MockLicenseRepository) Update(ctx context.Context, license *models.License) error {
	args := m.Called(ctx, license)
	return args.Error(0)
}

func (m *MockLicenseRepository) UpdateStatus(ctx context.Context, licenseID uuid.UUID, status string) error {
	args := m.Called(ctx, licenseID, status)
	return args.Error(0)
}

func (m *MockLicenseRepository) ListExpired(ctx context.Context, asOf time.Time) ([]*models.License, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.License), args.Error(1)
}

func (m *MockLicenseRepository) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockQuotaUsageRepository struct {
	mock.Mock
}

func (m *MockQuotaUsageRepository) CheckAndIncrement(ctx context.Context, licenseID uuid.UUID, yearMonth, counter string, limit int) (bool, error) {
	args := m.Called(ctx, licenseID, yearMonth, counter, limit)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuotaUsageRepository) GetUsage(ctx context.Context, licenseID uuid.UUID, yearMonth string) (*models.QuotaUsage, error) {
	args := m.Called(ctx, licenseID, yearMonth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuotaUsage), args.Error(1)
}

type MockSigningSecretRepository struct {
	mock.Mock
}

func (m *MockSigningSecretRepository) Create(ctx context.Context, secret *models.SigningSecret) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

func (m *MockSigningSecretRepository) GetActive(ctx context.Context, tenantID uuid.UUID) (*models.SigningSecret, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SigningSecret), args.Error(1)
}

func (m *MockSigningSecretRepository) UpsertTx(ctx context.Context, tx repositories.DBTX, secret *models.SigningSecret) error {
	args := m.Called(ctx, tx, secret)
	return args.Error(0)
}

func (m *MockSigningSecretRepository) LockTenantTx(ctx context.Context, tx repositories.DBTX, tenantID uuid.UUID) error {
	args := m.Called(ctx, tx, tenantID)
	return args.Error(0)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) AppendTx(ctx context.Context, tx repositories.DBTX, entry *models.AuditLog) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) ListByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, voucherID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockSignatureService struct {
	mock.Mock
}

func (m *MockSignatureService) Sign(ctx context.Context, voucher *models.Voucher) error {
	args := m.Called(ctx, voucher)
	return args.Error(0)
}

func (m *MockSignatureService) Verify(ctx context.Context, voucher *models.Voucher) (bool, error) {
	args := m.Called(ctx, voucher)
	return args.Bool(0), args.Error(1)
}

func (m *MockSignatureService) BatchVerify(ctx context.Context, tenantID uuid.UUID, voucherIDs []uuid.UUID) ([]BatchVerifyResult, error) {
	args := m.Called(ctx, tenantID, voucherIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BatchVerifyResult), args.Error(1)
}

func (m *MockSignatureService) RotateSecret(ctx context.Context, tenantID uuid.UUID) (RotationReport, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(RotationReport), args.Error(1)
}

type MockLicenseService struct {
	mock.Mock
}

func (m *MockLicenseService) Authorize(ctx context.Context, tenantID uuid.UUID, counter, clientIP string) (*models.License, error) {
	args := m.Called(ctx, tenantID, counter, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.License), args.Error(1)
}

func (m *MockLicenseService) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.License, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.License), args.Error(1)
}

func (m *MockLicenseService) Usage(ctx context.Context, tenantID uuid.UUID) (*UsageSummary, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UsageSummary), args.Error(1)
}

func (m *MockLicenseService) ExpireOverdue(ctx context.Context, asOf time.Time) (int, error) {
	args := m.Called(ctx, asOf)
	return args.Int(0), args.Error(1)
}

type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) RequestCode(ctx context.Context, channel string) (string, error) {
	args := m.Called(ctx, channel)
	return args.String(0), args.Error(1)
}

func (m *MockOTPService) VerifyCode(ctx context.Context, sessionID, code string) (bool, error) {
	args := m.Called(ctx, sessionID, code)
	return args.Bool(0), args.Error(1)
}

type MockAuditLogsService struct {
	mock.Mock
}

func (m *MockAuditLogsService) Record(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string, before, after *string, detail models.JSONB) error {
	args := m.Called(ctx, tenantID, voucherID, action, before, after, detail)
	return args.Error(0)
}

func (m *MockAuditLogsService) RecordTx(ctx context.Context, tx repositories.DBTX, tenantID uuid.UUID, voucherID *uuid.UUID, action string, before, after *string, detail models.JSONB) error {
	args := m.Called(ctx, tx, tenantID, voucherID, action, before, after, detail)
	return args.Error(0)
}

func (m *MockAuditLogsService) RecordSecurityEvent(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string, detail models.JSONB) error {
	args := m.Called(ctx, tenantID, voucherID, action, detail)
	return args.Error(0)
}

func (m *MockAuditLogsService) ListByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, voucherID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsService) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsService) Export(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ExportResult, error) {
	args := m.Called(ctx, tenantID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExportResult), args.Error(1)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) Upload(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, contentType)
	return args.Error(0)
}

func (m *MockMinioService) GetPresignedURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetLicense(ctx context.Context, tenantID uuid.UUID) (*models.License, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.License), args.Error(1)
}

func (m *MockCacheService) SetLicense(ctx context.Context, license *models.License, ttl time.Duration) error {
	args := m.Called(ctx, license, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteLicense(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) SetOTPSession(ctx context.Context, sessionID string, code string, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, code, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetOTPSession(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) DeleteOTPSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockCacheService) IncrementOTPAttempts(ctx context.Context, sessionID string, window time.Duration) (int64, error) {
	args := m.Called(ctx, sessionID, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func stringPtr(s string) *string { return &s }
