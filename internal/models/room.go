package models

import "time"

// Room is a teaching space. Capacity and equipment are informational only.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Equipment string    `db:"equipment" json:"equipment"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
}
