package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personapi/internal/database"
	"personapi/internal/model"
	"personapi/internal/repository"
)

var personColumns = []string{"id", "name", "age", "email", "phone", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*PersonStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPersonStore(db, database.Postgres), mock
}

func TestPersonStore_Insert(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	phone := "555-1234"

	t.Run("success", func(t *testing.T) {
		store, mock := newMockStore(t)
		p := &model.Person{ID: 99, Name: "Ana", Age: 30, Email: "ana@x.com", Phone: &phone, CreatedAt: created}

		mock.ExpectQuery(`INSERT INTO persons (.+) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)\s+RETURNING id`).
			WithArgs("Ana", 30, "ana@x.com", "555-1234", created, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		out, err := store.Insert(ctx, p)

		require.NoError(t, err)
		assert.Equal(t, int64(1), out.ID)
		assert.Equal(t, "Ana", out.Name)
		assert.Equal(t, int64(99), p.ID, "input must not be mutated")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("INSERT INTO persons").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_persons_email"})

		out, err := store.Insert(ctx, &model.Person{Name: "Bea", Email: "ana@x.com", CreatedAt: created})

		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
		assert.Nil(t, out)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other error", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("INSERT INTO persons").WillReturnError(errors.New("connection reset"))

		_, err := store.Insert(ctx, &model.Person{Name: "Bea", Email: "bea@x.com", CreatedAt: created})

		assert.EqualError(t, err, "connection reset")
	})
}

func TestPersonStore_FindByID(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(personColumns).
			AddRow(int64(1), "Ana", 30, "ana@x.com", "555-1234", created, updated)

		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		p, err := store.FindByID(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		require.NotNil(t, p.Phone)
		assert.Equal(t, "555-1234", *p.Phone)
		require.NotNil(t, p.UpdatedAt)
		assert.True(t, updated.Equal(*p.UpdatedAt))
	})

	t.Run("null optional columns", func(t *testing.T) {
		rows := sqlmock.NewRows(personColumns).
			AddRow(int64(2), "Bea", 22, "bea@x.com", nil, created, nil)

		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(rows)

		p, err := store.FindByID(ctx, 2)

		require.NoError(t, err)
		assert.Nil(t, p.Phone)
		assert.Nil(t, p.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		p, err := store.FindByID(ctx, 404)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, p)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonStore_FindByEmail(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM persons WHERE email = \$1 AND id <> \$2`).
		WithArgs("ana@x.com", int64(3)).
		WillReturnRows(sqlmock.NewRows(personColumns))

	p, err := store.FindByEmail(ctx, "ana@x.com", 3)

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonStore_FindAllByName(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	created := time.Now().UTC()

	t.Run("matches", func(t *testing.T) {
		rows := sqlmock.NewRows(personColumns).
			AddRow(int64(1), "Ana", 30, "ana@x.com", nil, created, nil).
			AddRow(int64(4), "Ana", 41, "ana2@x.com", nil, created, nil)

		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE name = \$1 ORDER BY id`).
			WithArgs("Ana").
			WillReturnRows(rows)

		items, err := store.FindAllByName(ctx, "Ana")

		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, int64(4), items[1].ID)
	})

	t.Run("no matches is an empty slice", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE name = \$1 ORDER BY id`).
			WithArgs("NoSuchName").
			WillReturnRows(sqlmock.NewRows(personColumns))

		items, err := store.FindAllByName(ctx, "NoSuchName")

		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonStore_ListAll(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(personColumns).
			AddRow(int64(1), "Ana", 30, "ana@x.com", nil, time.Now(), nil)

		mock.ExpectQuery(`SELECT (.+) FROM persons ORDER BY id`).WillReturnRows(rows)

		items, err := store.ListAll(ctx)

		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM persons ORDER BY id`).WillReturnError(errors.New("db down"))

		items, err := store.ListAll(ctx)

		assert.Error(t, err)
		assert.Nil(t, items)
	})

	t.Run("scan error", func(t *testing.T) {
		rows := sqlmock.NewRows(personColumns).
			AddRow("not-a-number", "Ana", 30, "ana@x.com", nil, time.Now(), nil)
		mock.ExpectQuery(`SELECT (.+) FROM persons ORDER BY id`).WillReturnRows(rows)

		_, err := store.ListAll(ctx)

		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonStore_Update(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	p := &model.Person{Name: "Ana B.", Age: 31, Email: "ana@x.com", UpdatedAt: &updated}

	t.Run("success", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`UPDATE persons\s+SET name = \$1, age = \$2, email = \$3, phone = \$4, updated_at = \$5\s+WHERE id = \$6`).
			WithArgs("Ana B.", 31, "ana@x.com", nil, updated, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		out, err := store.Update(ctx, 1, p)

		require.NoError(t, err)
		assert.Equal(t, int64(1), out.ID)
		assert.Equal(t, "Ana B.", out.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("UPDATE persons").WillReturnResult(sqlmock.NewResult(0, 0))

		out, err := store.Update(ctx, 7, p)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, out)
	})

	t.Run("unique violation", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("UPDATE persons").WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := store.Update(ctx, 1, p)

		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	})
}

func TestPersonStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM persons WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM persons WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.Delete(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate key")))
	assert.False(t, isUniqueViolation(nil))
}
