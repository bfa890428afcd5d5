package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"voucherflow/internal/models"

	"github.com/google/uuid"
)

// AuditLogsRepository is append-only by construction: there is no update
// or delete method, so the trail cannot be rewritten through this layer.
type AuditLogsRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	// AppendTx appends inside a caller-owned transaction so the entry
	// commits together with the state write it describes.
	AppendTx(ctx context.Context, tx DBTX, entry *models.AuditLog) error
	ListByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db Database
}

func NewAuditLogsRepo(db Database) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

const auditColumns = `id, tenant_id, voucher_id, action, actor_id, actor_name, actor_role,
		before_state, after_state, detail, client_ip, user_agent, security, created_at`

func (r *auditLogsRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.append(ctx, r.db, entry)
}

func (r *auditLogsRepo) AppendTx(ctx context.Context, tx DBTX, entry *models.AuditLog) error {
	return r.append(ctx, tx, entry)
}

func (r *auditLogsRepo) append(ctx context.Context, q DBTX, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	var detailBytes []byte
	var err error
	if entry.Detail != nil {
		detailBytes, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, tenant_id, voucher_id, action, actor_id, actor_name, actor_role,
			before_state, after_state, detail, client_ip, user_agent, security, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = q.Exec(ctx, query,
		entry.ID, entry.TenantID, entry.VoucherID, entry.Action,
		entry.ActorID, entry.ActorName, entry.ActorRole,
		entry.BeforeState, entry.AfterState, detailBytes,
		entry.ClientIP, entry.UserAgent, entry.Security, entry.CreatedAt)
	return err
}

func scanAuditLog(row interface{ Scan(dest ...interface{}) error }) (*models.AuditLog, error) {
	entry := &models.AuditLog{}
	var detailBytes []byte
	err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.VoucherID, &entry.Action,
		&entry.ActorID, &entry.ActorName, &entry.ActorRole,
		&entry.BeforeState, &entry.AfterState, &detailBytes,
		&entry.ClientIP, &entry.UserAgent, &entry.Security, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(detailBytes) > 0 {
		if err := json.Unmarshal(detailBytes, &entry.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit detail: %w", err)
		}
	}
	return entry, nil
}

func (r *auditLogsRepo) ListByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE tenant_id = $1 AND voucher_id = $2
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, voucherID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *auditLogsRepo) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	if filters.VoucherID != nil {
		args = append(args, *filters.VoucherID)
		query += ` AND voucher_id = $` + strconv.Itoa(len(args))
	}
	if filters.Action != nil {
		args = append(args, *filters.Action)
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	if filters.ActorID != nil {
		args = append(args, *filters.ActorID)
		query += ` AND actor_id = $` + strconv.Itoa(len(args))
	}
	if filters.SecurityOnly {
		query += ` AND security = TRUE`
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
	query += ` ORDER BY created_at ASC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
