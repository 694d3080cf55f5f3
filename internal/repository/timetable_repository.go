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

const timetableViewSelect = `SELECT e.id, e.group_id, e.teacher_id, e.room_id, e.subject, e.day, e.start_time, e.end_time, e.date, e.created_at,
	COALESCE(g.name, '') AS group_name, COALESCE(t.name, '') AS teacher_name, COALESCE(r.name, '') AS room_name
	FROM timetable_entries e
	LEFT JOIN groups g ON g.id = e.group_id AND g.active
	LEFT JOIN teachers t ON t.id = e.teacher_id AND t.active
	LEFT JOIN rooms r ON r.id = e.room_id AND r.active
	WHERE 1=1`

const timetableOrder = ` ORDER BY e.date ASC, array_position(ARRAY['lundi','mardi','mercredi','jeudi','vendredi','samedi','dimanche'], e.day::text) ASC, e.start_time ASC`

// TimetableRepository persists generated timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// Replace swaps the stored timetable of key for entries and appends the audit record,
// all in one transaction. Concurrent replaces of the same key are serialised by a
// transaction-scoped advisory lock; other keys proceed in parallel.
func (r *TimetableRepository) Replace(ctx context.Context, key models.TimetableKey, entries []models.TimetableEntry, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.swap(ctx, tx, key, entries, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace timetable: %w", err)
	}
	return nil
}

// ReplaceExclusive is Replace for cross-group exclusion. A date-wide advisory lock is
// held from the read of the other groups' entries until commit, so generations for
// different groups on one date see each other's result. build receives those entries
// and returns what to store; its error is returned unwrapped and nothing is written.
func (r *TimetableRepository) ReplaceExclusive(ctx context.Context, key models.TimetableKey, build func(others []models.TimetableEntry) ([]models.TimetableEntry, *models.AuditLog, error)) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	day := key.Date.Format(models.DateLayout)
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, day); err != nil {
		return fmt.Errorf("lock timetables of %s: %w", day, err)
	}

	var others []models.TimetableEntry
	const query = `SELECT id, group_id, teacher_id, room_id, subject, day, start_time, end_time, date, created_at FROM timetable_entries WHERE date = $1 AND group_id <> $2`
	if err = tx.SelectContext(ctx, &others, query, key.Date, key.GroupID); err != nil {
		return fmt.Errorf("list timetable entries by date: %w", err)
	}

	entries, audit, err := build(others)
	if err != nil {
		return err
	}

	if err = r.swap(ctx, tx, key, entries, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace timetable: %w", err)
	}
	return nil
}

// swap runs inside tx: key lock, delete, insert, audit.
func (r *TimetableRepository) swap(ctx context.Context, tx *sqlx.Tx, key models.TimetableKey, entries []models.TimetableEntry, audit *models.AuditLog) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("lock timetable %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE group_id = $1 AND date = $2`, key.GroupID, key.Date); err != nil {
		return fmt.Errorf("clear timetable %s: %w", key, err)
	}

	if err := r.insertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if audit != nil {
		if err := insertAuditLog(ctx, tx, audit); err != nil {
			return err
		}
	}
	return nil
}

func (r *TimetableRepository) insertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	now := time.Now().UTC()
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_entries (id, group_id, teacher_id, room_id, subject, day, start_time, end_time, date, created_at) VALUES (:id, :group_id, :teacher_id, :room_id, :subject, :day, :start_time, :end_time, :date, :created_at)`, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// Query returns joined timetable rows. Names of missing or deactivated teachers, rooms
// or groups come back empty. Search is a case-insensitive substring match over subject, teacher name
// and room name applied after the join.
func (r *TimetableRepository) Query(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableView, error) {
	query := timetableViewSelect
	var args []interface{}

	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += fmt.Sprintf(" AND e.group_id = $%d", len(args))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += fmt.Sprintf(" AND e.teacher_id = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND e.date = $%d", len(args))
	}

	var rows []models.TimetableView
	if err := r.db.SelectContext(ctx, &rows, query+timetableOrder, args...); err != nil {
		return nil, fmt.Errorf("query timetable: %w", err)
	}

	return matchSearch(rows, filter.Search), nil
}

func matchSearch(rows []models.TimetableView, search string) []models.TimetableView {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return rows
	}
	filtered := make([]models.TimetableView, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Subject), needle) ||
			strings.Contains(strings.ToLower(row.TeacherName), needle) ||
			strings.Contains(strings.ToLower(row.RoomName), needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
