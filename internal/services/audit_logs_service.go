package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voucherflow/internal/common"
	"voucherflow/internal/models"
	"voucherflow/internal/repositories"

	"github.com/google/uuid"
)

// AuditLogsService is the append-only trail of every transition attempt.
// Entries are built from the request context so actor identity and client
// metadata are recorded uniformly.
type AuditLogsService interface {
	// Record appends an entry outside any transaction. Used where no
	// state write accompanies the entry (verification logs).
	Record(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string, before, after *string, detail models.JSONB) error
	// RecordTx appends inside the caller's transaction so the entry and
	// the state write it describes commit or roll back together; the
	// trail must not have holes.
	RecordTx(ctx context.Context, tx repositories.DBTX, tenantID uuid.UUID, voucherID *uuid.UUID, action string, before, after *string, detail models.JSONB) error
	// RecordSecurityEvent appends a distinguished security incident entry
	// (integrity violations), separate from routine transition records.
	RecordSecurityEvent(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string, detail models.JSONB) error
	ListByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	// Export writes the tenant's trail for a period to the compliance
	// bucket as JSON lines.
	Export(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ExportResult, error)
}

// ExportResult describes one written compliance export object.
type ExportResult struct {
	ObjectName  string `json:"object_name"`
	Entries     int    `json:"entries"`
	DownloadURL string `json:"download_url,omitempty"`
}

// exportURLExpiry bounds how long an export download link stays valid.
const exportURLExpiry = 24 * time.Hour

type auditLogsService struct {
	auditRepo  repositories.AuditLogsRepository
	minioSvc   MinioService
	bucketName string
}

func NewAuditLogsService(auditRepo repositories.AuditLogsRepository, minioSvc MinioService, bucketName string) AuditLogsService {
	return &auditLogsService{
		auditRepo:  auditRepo,
		minioSvc:   minioSvc,
		bucketName: bucketName,
	}
}

func (s *auditLogsService) buildEntry(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string) *models.AuditLog {
	entry := &models.AuditLog{
		TenantID:  tenantID,
		VoucherID: voucherID,
		Action:    action,
		ActorName: common.GetActorNameFromContext(ctx),
		ClientIP:  common.GetClientIPFromContext(ctx),
		UserAgent: common.GetUserAgentFromContext(ctx),
	}
	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		entry.ActorID = &actorID
	}
	if role, ok := common.GetRoleFromContext(ctx); ok {
		entry.ActorRole = role
	}
	return entry
}

func (s *auditLogsService) Record(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string, before, after *string, detail models.JSONB) error {
	entry := s.buildEntry(ctx, tenantID, voucherID, action)
	entry.BeforeState = before
	entry.AfterState = after
	entry.Detail = detail
	return s.auditRepo.Append(ctx, entry)
}

func (s *auditLogsService) RecordTx(ctx context.Context, tx repositories.DBTX, tenantID uuid.UUID, voucherID *uuid.UUID, action string, before, after *string, detail models.JSONB) error {
	entry := s.buildEntry(ctx, tenantID, voucherID, action)
	entry.BeforeState = before
	entry.AfterState = after
	entry.Detail = detail
	return s.auditRepo.AppendTx(ctx, tx, entry)
}

func (s *auditLogsService) RecordSecurityEvent(ctx context.Context, tenantID uuid.UUID, voucherID *uuid.UUID, action string, detail models.JSONB) error {
	entry := s.buildEntry(ctx, tenantID, voucherID, action)
	entry.Security = true
	entry.Detail = detail
	return s.auditRepo.Append(ctx, entry)
}

func (s *auditLogsService) ListByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	return s.auditRepo.ListByVoucher(ctx, tenantID, voucherID, limit, offset)
}

func (s *auditLogsService) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	return s.auditRepo.List(ctx, tenantID, filters)
}

func (s *auditLogsService) Export(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ExportResult, error) {
	filters := &models.AuditLogFilters{
		StartDate: &start,
		EndDate:   &end,
		Limit:     100000,
	}
	entries, err := s.auditRepo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return nil, err
		}
	}

	objectName := fmt.Sprintf("audit/%s/%s_%s.jsonl",
		tenantID.String(),
		start.UTC().Format("20060102"),
		end.UTC().Format("20060102"))

	if err := s.minioSvc.EnsureBucketExists(ctx, s.bucketName); err != nil {
		return nil, err
	}
	if err := s.minioSvc.Upload(ctx, s.bucketName, objectName, &buf, int64(buf.Len()), "application/x-ndjson"); err != nil {
		return nil, err
	}

	url, err := s.minioSvc.GetPresignedURL(s.bucketName, objectName, exportURLExpiry)
	if err != nil {
		return nil, err
	}
	return &ExportResult{ObjectName: objectName, Entries: len(entries), DownloadURL: url}, nil
}
