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

const teacherColumns = "id, name, email, phone, subjects, availability, active, created_at, updated_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(subjects) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", teacherColumns, base, limit, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// ListActive returns every active teacher, unpaginated, for timetable generation.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE active = TRUE ORDER BY name ASC", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher record. A non-nil audit is written in the same transaction.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher, audit *models.AuditLog) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, name, email, phone, subjects, availability, active, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :subjects, :availability, :active, :created_at, :updated_at)`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
			return fmt.Errorf("create teacher: %w", err)
		}
		return nil
	})
}

// Update modifies an existing teacher record.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher, audit *models.AuditLog) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET name = :name, email = :email, phone = :phone, subjects = :subjects, availability = :availability, active = :active, updated_at = :updated_at WHERE id = :id`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
			return fmt.Errorf("update teacher: %w", err)
		}
		return nil
	})
}

// Deactivate sets a teacher's active flag to false.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string, audit *models.AuditLog) error {
	const query = `UPDATE teachers SET active = FALSE, updated_at = $2 WHERE id = $1`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("deactivate teacher: %w", err)
		}
		return nil
	})
}
