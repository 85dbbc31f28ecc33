package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
)

// ErrRoomNotFound is returned when a room cannot be found in the DB.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo encapsulates all database queries related to screening rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the provided DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = "id, name, capacity, screen_type, audio_system, accessible, created_at, updated_at"

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	rm := new(model.Room)
	err := row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.ScreenType,
		&rm.AudioSystem, &rm.Accessible, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

// Create inserts a new room and refreshes the record from the DB.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const qInsert = `INSERT INTO rooms (name, capacity, screen_type, audio_system, accessible)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, rm.Name, rm.Capacity, rm.ScreenType, rm.AudioSystem, rm.Accessible)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)

	const qSelect = "SELECT " + roomColumns + " FROM rooms WHERE id = ?"
	got, err := scanRoom(r.db.QueryRowContext(ctx, qSelect, rm.ID))
	if err != nil {
		return err
	}
	*rm = *got
	return nil
}

// GetByID fetches a room by id, returning ErrRoomNotFound when no row
// matches.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = "SELECT " + roomColumns + " FROM rooms WHERE id = ?"
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return rm, nil
}

// List returns all rooms ordered by id.
func (r *RoomRepo) List(ctx context.Context) ([]*model.Room, error) {
	const q = "SELECT " + roomColumns + " FROM rooms ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of rooms.
func (r *RoomRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&n)
	return n, err
}

// Update replaces every mutable column of the room.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	const q = `UPDATE rooms
	           SET name = ?, capacity = ?, screen_type = ?, audio_system = ?,
	               accessible = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Capacity, rm.ScreenType, rm.AudioSystem, rm.Accessible, rm.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}

	const qSelect = "SELECT " + roomColumns + " FROM rooms WHERE id = ?"
	got, err := scanRoom(r.db.QueryRowContext(ctx, qSelect, rm.ID))
	if err != nil {
		return err
	}
	*rm = *got
	return nil
}

// Delete removes a room unless sessions still reference it, in which
// case it fails with ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sessions int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE room_id = ?", id).Scan(&sessions); err != nil {
		return err
	}
	if sessions > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return tx.Commit()
}
