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

const groupColumns = "id, name, student_count, subjects, active, created_at, updated_at"

// GroupRepository manages persistence for student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups matching filters along with total count.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error) {
	base := "FROM groups WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(subjects) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", groupColumns, base, limit, offset)
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}

	return groups, total, nil
}

// FindByID fetches a group by ID.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	query := fmt.Sprintf("SELECT %s FROM groups WHERE id = $1", groupColumns)
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group, audit *models.AuditLog) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	const query = `INSERT INTO groups (id, name, student_count, subjects, active, created_at, updated_at)
		VALUES (:id, :name, :student_count, :subjects, :active, :created_at, :updated_at)`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, group); err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		return nil
	})
}

// Update modifies a group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group, audit *models.AuditLog) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, student_count = :student_count, subjects = :subjects, active = :active, updated_at = :updated_at WHERE id = :id`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, group); err != nil {
			return fmt.Errorf("update group: %w", err)
		}
		return nil
	})
}

// Deactivate soft deletes a group.
func (r *GroupRepository) Deactivate(ctx context.Context, id string, audit *models.AuditLog) error {
	const query = `UPDATE groups SET active = FALSE, updated_at = $2 WHERE id = $1`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("deactivate group: %w", err)
		}
		return nil
	})
}
