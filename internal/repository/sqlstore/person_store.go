// Package sqlstore implements repository.PersonRepository over database/sql
// for both PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"personapi/internal/database"
	"personapi/internal/model"
	"personapi/internal/repository"
)

const pgUniqueViolation = "23505"

// PersonStore uses parameterized queries only and contains no business logic.
// Queries are written with '?' placeholders and rebound for the dialect.
type PersonStore struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPersonStore creates a PersonStore for db speaking dialect.
func NewPersonStore(db *sql.DB, dialect database.Dialect) *PersonStore {
	return &PersonStore{db: db, dialect: dialect}
}

var _ repository.PersonRepository = (*PersonStore)(nil)

const selectPerson = `SELECT id, name, age, email, phone, created_at, updated_at FROM persons`

// Insert adds a row and returns a copy of p with the generated id.
func (s *PersonStore) Insert(ctx context.Context, p *model.Person) (*model.Person, error) {
	q := s.dialect.Rebind(`
		INSERT INTO persons (name, age, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	err := s.db.QueryRowContext(ctx, q,
		p.Name,
		p.Age,
		p.Email,
		nullString(p.Phone),
		p.CreatedAt,
		nullTime(p.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return nil, translate(err)
	}
	out := *p
	out.ID = id
	return &out, nil
}

// FindByID returns the person with id, or repository.ErrNotFound.
func (s *PersonStore) FindByID(ctx context.Context, id int64) (*model.Person, error) {
	q := s.dialect.Rebind(selectPerson + ` WHERE id = ?`)
	return s.queryOne(ctx, q, id)
}

// FindByEmail returns the person holding email other than excludeID, or repository.ErrNotFound.
func (s *PersonStore) FindByEmail(ctx context.Context, email string, excludeID int64) (*model.Person, error) {
	q := s.dialect.Rebind(selectPerson + ` WHERE email = ? AND id <> ?`)
	return s.queryOne(ctx, q, email, excludeID)
}

// FindAllByName returns persons whose name matches exactly, ordered by id.
func (s *PersonStore) FindAllByName(ctx context.Context, name string) ([]model.Person, error) {
	q := s.dialect.Rebind(selectPerson + ` WHERE name = ? ORDER BY id`)
	return s.queryMany(ctx, q, name)
}

// ListAll returns every person ordered by id.
func (s *PersonStore) ListAll(ctx context.Context) ([]model.Person, error) {
	return s.queryMany(ctx, selectPerson+` ORDER BY id`)
}

// Update overwrites the mutable columns and returns a copy of p carrying id.
func (s *PersonStore) Update(ctx context.Context, id int64, p *model.Person) (*model.Person, error) {
	q := s.dialect.Rebind(`
		UPDATE persons
		SET name = ?, age = ?, email = ?, phone = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := s.db.ExecContext(ctx, q,
		p.Name,
		p.Age,
		p.Email,
		nullString(p.Phone),
		nullTime(p.UpdatedAt),
		id,
	)
	if err != nil {
		return nil, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	out := *p
	out.ID = id
	return &out, nil
}

// Delete removes the person with id and reports whether a row was deleted.
func (s *PersonStore) Delete(ctx context.Context, id int64) (bool, error) {
	q := s.dialect.Rebind(`DELETE FROM persons WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PersonStore) queryOne(ctx context.Context, q string, args ...any) (*model.Person, error) {
	p, err := scanPerson(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PersonStore) queryMany(ctx context.Context, q string, args ...any) ([]model.Person, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*model.Person, error) {
	var (
		p         model.Person
		phone     sql.NullString
		updatedAt sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Email,
		&phone,
		&p.CreatedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

// translate maps a unique-constraint violation from either driver onto repository.ErrDuplicateEmail.
func translate(err error) error {
	if isUniqueViolation(err) {
		return repository.ErrDuplicateEmail
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
