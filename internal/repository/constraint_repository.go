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

const constraintColumns = "id, resource_type, resource_id, resource_name, day, time, constraint_type, active, created_at, updated_at"

// ConstraintRepository manages persistence for scheduling constraints.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs a ConstraintRepository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// List returns constraints matching filters along with total count.
func (r *ConstraintRepository) List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, int, error) {
	base := "FROM constraints WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.ResourceType != "" {
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", len(args)+1))
		args = append(args, string(filter.ResourceType))
	}
	if filter.ResourceID != "" {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", len(args)+1))
		args = append(args, filter.ResourceID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", constraintColumns, base, limit, offset)
	var constraints []models.Constraint
	if err := r.db.SelectContext(ctx, &constraints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list constraints: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count constraints: %w", err)
	}

	return constraints, total, nil
}

// ListActive returns every active constraint. The scheduler filters by resource type itself.
func (r *ConstraintRepository) ListActive(ctx context.Context) ([]models.Constraint, error) {
	query := fmt.Sprintf("SELECT %s FROM constraints WHERE active = TRUE", constraintColumns)
	var constraints []models.Constraint
	if err := r.db.SelectContext(ctx, &constraints, query); err != nil {
		return nil, fmt.Errorf("list active constraints: %w", err)
	}
	return constraints, nil
}

// FindByID fetches a constraint by ID.
func (r *ConstraintRepository) FindByID(ctx context.Context, id string) (*models.Constraint, error) {
	query := fmt.Sprintf("SELECT %s FROM constraints WHERE id = $1", constraintColumns)
	var constraint models.Constraint
	if err := r.db.GetContext(ctx, &constraint, query, id); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// Create inserts a constraint.
func (r *ConstraintRepository) Create(ctx context.Context, constraint *models.Constraint, audit *models.AuditLog) error {
	if constraint.ID == "" {
		constraint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if constraint.CreatedAt.IsZero() {
		constraint.CreatedAt = now
	}
	constraint.UpdatedAt = now

	const query = `INSERT INTO constraints (id, resource_type, resource_id, resource_name, day, time, constraint_type, active, created_at, updated_at)
		VALUES (:id, :resource_type, :resource_id, :resource_name, :day, :time, :constraint_type, :active, :created_at, :updated_at)`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, constraint); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
		return nil
	})
}

// Update modifies a constraint.
func (r *ConstraintRepository) Update(ctx context.Context, constraint *models.Constraint, audit *models.AuditLog) error {
	constraint.UpdatedAt = time.Now().UTC()
	const query = `UPDATE constraints SET resource_type = :resource_type, resource_id = :resource_id, resource_name = :resource_name, day = :day, time = :time, constraint_type = :constraint_type, active = :active, updated_at = :updated_at WHERE id = :id`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, constraint); err != nil {
			return fmt.Errorf("update constraint: %w", err)
		}
		return nil
	})
}

// Deactivate soft deletes a constraint.
func (r *ConstraintRepository) Deactivate(ctx context.Context, id string, audit *models.AuditLog) error {
	const query = `UPDATE constraints SET active = FALSE, updated_at = $2 WHERE id = $1`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("deactivate constraint: %w", err)
		}
		return nil
	})
}
