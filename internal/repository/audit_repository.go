package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// AuditRepository stores the append-only audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// List returns audit entries newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	base := "FROM audit_logs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Actor != "" {
		conditions = append(conditions, fmt.Sprintf("actor = $%d", len(args)+1))
		args = append(args, filter.Actor)
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Action))
	}
	if filter.Resource != "" {
		conditions = append(conditions, fmt.Sprintf("resource = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Resource))
	}
	if filter.RequestID != "" {
		conditions = append(conditions, fmt.Sprintf("request_id = $%d", len(args)+1))
		args = append(args, filter.RequestID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT id, actor, action, resource, resource_id, COALESCE(detail, '{}'::jsonb) AS detail, request_id, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, limit, offset)
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	return logs, total, nil
}

// withAudit runs write and, when audit is non-nil, the audit insert in one transaction.
// Either failing rolls both back.
func withAudit(ctx context.Context, db *sqlx.DB, audit *models.AuditLog, write func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audited write: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = write(tx); err != nil {
		return err
	}

	if audit != nil {
		if err = insertAuditLog(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit audited write: %w", err)
	}
	return nil
}

// insertAuditLog writes through either the pool or an open transaction.
func insertAuditLog(ctx context.Context, exec sqlx.ExecerContext, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	var detail interface{}
	if len(log.Detail) > 0 {
		detail = string(log.Detail)
	}

	const query = `INSERT INTO audit_logs (id, actor, action, resource, resource_id, detail, request_id, created_at) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`
	if _, err := exec.ExecContext(ctx, query, log.ID, log.Actor, log.Action, log.Resource, log.ResourceID, detail, log.RequestID, log.CreatedAt); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
