package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
)

// ErrDirectorNotFound is returned when a director cannot be found in the DB.
var ErrDirectorNotFound = errors.New("director not found")

// DirectorRepo encapsulates all database queries related to directors.
type DirectorRepo struct {
	db *sql.DB
}

// NewDirectorRepo constructs a DirectorRepo with the provided DB handle.
func NewDirectorRepo(db *sql.DB) *DirectorRepo {
	return &DirectorRepo{db: db}
}

const directorColumns = "id, name, nationality, birth_date, biography, website, created_at, updated_at"

func scanDirector(row interface{ Scan(...any) error }) (*model.Director, error) {
	d := new(model.Director)
	err := row.Scan(&d.ID, &d.Name, &d.Nationality, &d.BirthDate,
		&d.Biography, &d.Website, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a new director and refreshes the record from the DB so
// timestamp defaults come back populated.
func (r *DirectorRepo) Create(ctx context.Context, d *model.Director) error {
	const qInsert = `INSERT INTO directors (name, nationality, birth_date, biography, website)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, d.Name, d.Nationality, d.BirthDate, d.Biography, d.Website)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)

	const qSelect = "SELECT " + directorColumns + " FROM directors WHERE id = ?"
	got, err := scanDirector(r.db.QueryRowContext(ctx, qSelect, d.ID))
	if err != nil {
		return err
	}
	*d = *got
	return nil
}

// GetByID fetches a director by id, returning ErrDirectorNotFound when
// no row matches.
func (r *DirectorRepo) GetByID(ctx context.Context, id uint64) (*model.Director, error) {
	const q = "SELECT " + directorColumns + " FROM directors WHERE id = ?"
	d, err := scanDirector(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDirectorNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns all directors ordered by id.
func (r *DirectorRepo) List(ctx context.Context) ([]*model.Director, error) {
	const q = "SELECT " + directorColumns + " FROM directors ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Director
	for rows.Next() {
		d, err := scanDirector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of directors.
func (r *DirectorRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM directors").Scan(&n)
	return n, err
}

// Update replaces every mutable column of the director.
func (r *DirectorRepo) Update(ctx context.Context, d *model.Director) error {
	const q = `UPDATE directors
	           SET name = ?, nationality = ?, birth_date = ?, biography = ?,
	               website = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, d.Name, d.Nationality, d.BirthDate, d.Biography, d.Website, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDirectorNotFound
	}

	const qSelect = "SELECT " + directorColumns + " FROM directors WHERE id = ?"
	got, err := scanDirector(r.db.QueryRowContext(ctx, qSelect, d.ID))
	if err != nil {
		return err
	}
	*d = *got
	return nil
}

// Delete removes a director. Directors never cascade onto their movies;
// while any movie references the director the delete fails with
// ErrConflict.
func (r *DirectorRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var movies int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies WHERE director_id = ?", id).Scan(&movies); err != nil {
		return err
	}
	if movies > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM directors WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDirectorNotFound
	}
	return tx.Commit()
}
