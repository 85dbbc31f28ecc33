package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
)

// ErrMovieNotFound is returned when a movie cannot be found in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo encapsulates all database queries related to movies. It
// depends on a sql.DB connection which should be configured elsewhere.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, title, genre, duration_minutes, release_date, rating, synopsis, director_id, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (*model.Movie, error) {
	m := new(model.Movie)
	err := row.Scan(&m.ID, &m.Title, &m.Genre, &m.DurationMinutes, &m.ReleaseDate,
		&m.Rating, &m.Synopsis, &m.DirectorID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a new movie. On success the ID field is populated with
// the auto-generated value and a follow-up SELECT refreshes the
// timestamp columns so callers receive a fully populated record.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const qInsert = `INSERT INTO movies (title, genre, duration_minutes, release_date, rating, synopsis, director_id)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, m.Title, m.Genre, m.DurationMinutes,
		m.ReleaseDate, m.Rating, m.Synopsis, m.DirectorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	const qSelect = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	got, err := scanMovie(r.db.QueryRowContext(ctx, qSelect, m.ID))
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

// GetByID fetches a movie by its ID. It returns ErrMovieNotFound if no
// row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns all movies ordered by id.
func (r *MovieRepo) List(ctx context.Context) ([]*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDirector returns all movies of one director ordered by id.
func (r *MovieRepo) ListByDirector(ctx context.Context, directorID uint64) ([]*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE director_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, directorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}

// Update replaces every mutable column of the movie. It returns
// ErrMovieNotFound when no row matches; the explicit updated_at bump
// guarantees a matched row always counts as affected.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
	           SET title = ?, genre = ?, duration_minutes = ?, release_date = ?,
	               rating = ?, synopsis = ?, director_id = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Genre, m.DurationMinutes,
		m.ReleaseDate, m.Rating, m.Synopsis, m.DirectorID, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}

	const qSelect = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	got, err := scanMovie(r.db.QueryRowContext(ctx, qSelect, m.ID))
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

// Delete removes a movie when nothing references it. It runs in a
// transaction: sessions still pointing at the movie make the delete fail
// with ErrConflict so reports never see a dangling movie reference.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sessions int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE movie_id = ?", id).Scan(&sessions); err != nil {
		return err
	}
	if sessions > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return tx.Commit()
}
