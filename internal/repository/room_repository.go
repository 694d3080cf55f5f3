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

const roomColumns = "id, name, capacity, equipment, active, created_at, updated_at"

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching filters along with total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(equipment) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", roomColumns, base, limit, offset)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}

	return rooms, total, nil
}

// ListActive returns every active room.
func (r *RoomRepository) ListActive(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE active = TRUE ORDER BY name ASC", roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1", roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room, audit *models.AuditLog) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (id, name, capacity, equipment, active, created_at, updated_at)
		VALUES (:id, :name, :capacity, :equipment, :active, :created_at, :updated_at)`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, room); err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		return nil
	})
}

// Update modifies a room.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room, audit *models.AuditLog) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET name = :name, capacity = :capacity, equipment = :equipment, active = :active, updated_at = :updated_at WHERE id = :id`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, room); err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		return nil
	})
}

// Deactivate soft deletes a room.
func (r *RoomRepository) Deactivate(ctx context.Context, id string, audit *models.AuditLog) error {
	const query = `UPDATE rooms SET active = FALSE, updated_at = $2 WHERE id = $1`
	return withAudit(ctx, r.db, audit, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("deactivate room: %w", err)
		}
		return nil
	})
}
