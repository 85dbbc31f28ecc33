package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
)

// ErrSessionNotFound is returned when a session cannot be found in the DB.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepo encapsulates all database queries related to screening
// sessions, the root entity of the revenue report.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the provided DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = "id, movie_id, room_id, start_time, exhibition_type, audio_language, subtitle_language, status, base_price, created_at, updated_at"

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	s := new(model.Session)
	err := row.Scan(&s.ID, &s.MovieID, &s.RoomID, &s.StartTime, &s.ExhibitionType,
		&s.AudioLanguage, &s.SubtitleLanguage, &s.Status, &s.BasePrice, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session and refreshes the record from the DB.
// Referential checks against movie and room happen at the handler layer
// before this runs; the FK constraints are the last line of defense.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const qInsert = `INSERT INTO sessions (movie_id, room_id, start_time, exhibition_type, audio_language, subtitle_language, status, base_price)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, s.MovieID, s.RoomID, s.StartTime,
		s.ExhibitionType, s.AudioLanguage, s.SubtitleLanguage, s.Status, s.BasePrice)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	const qSelect = "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	got, err := scanSession(r.db.QueryRowContext(ctx, qSelect, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID fetches a session by id, returning ErrSessionNotFound when no
// row matches.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	const q = "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns all sessions ordered by id.
func (r *SessionRepo) List(ctx context.Context) ([]*model.Session, error) {
	const q = "SELECT " + sessionColumns + " FROM sessions ORDER BY id"
	return r.queryMany(ctx, q)
}

// ListByRoom returns all sessions scheduled in one room ordered by id.
func (r *SessionRepo) ListByRoom(ctx context.Context, roomID uint64) ([]*model.Session, error) {
	const q = "SELECT " + sessionColumns + " FROM sessions WHERE room_id = ? ORDER BY id"
	return r.queryMany(ctx, q, roomID)
}

// ListByMovie returns all sessions screening one movie ordered by id.
func (r *SessionRepo) ListByMovie(ctx context.Context, movieID uint64) ([]*model.Session, error) {
	const q = "SELECT " + sessionColumns + " FROM sessions WHERE movie_id = ? ORDER BY id"
	return r.queryMany(ctx, q, movieID)
}

func (r *SessionRepo) queryMany(ctx context.Context, q string, args ...any) ([]*model.Session, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of sessions.
func (r *SessionRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

// Update replaces every mutable column of the session.
func (r *SessionRepo) Update(ctx context.Context, s *model.Session) error {
	const q = `UPDATE sessions
	           SET movie_id = ?, room_id = ?, start_time = ?, exhibition_type = ?,
	               audio_language = ?, subtitle_language = ?, status = ?, base_price = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.RoomID, s.StartTime, s.ExhibitionType,
		s.AudioLanguage, s.SubtitleLanguage, s.Status, s.BasePrice, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	const qSelect = "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	got, err := scanSession(r.db.QueryRowContext(ctx, qSelect, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// Delete removes a session unless tickets still reference it, in which
// case it fails with ErrConflict.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var tickets int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE session_id = ?", id).Scan(&tickets); err != nil {
		return err
	}
	if tickets > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return tx.Commit()
}
