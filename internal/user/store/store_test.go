package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicebox/internal/user"
	"github.com/MrJamesThe3rd/invoicebox/internal/user/store"
)

func newStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store.New(db), mock
}

var userColumns = []string{
	"id", "name", "email", "role", "status", "password_hash", "created_at", "updated_at", "deleted_at",
}

func TestStore_CreateUser(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ada", "ada@example.com", user.RoleProvider, user.StatusActive, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id.String(), now, now))

	u := &user.User{Name: "Ada", Email: "ada@example.com", Role: user.RoleProvider, Status: user.StatusActive, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	assert.Equal(t, id, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateUser_EmailTaken(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.CreateUser(context.Background(), &user.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestStore_GetUser(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id.String(), "Ada", "ada@example.com", "purchaser", "active", "hash", now, nil, nil))

	got, err := s.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, user.RolePurchaser, got.Role)
	assert.True(t, got.IsActive())

	mock.ExpectQuery(`SELECT .* FROM users`).WillReturnError(sql.ErrNoRows)

	_, err = s.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestStore_ListUsers_Filters(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectQuery(`AND role = \$1 AND status = \$2 ORDER BY name ASC`).
		WithArgs(user.RoleProvider, user.StatusActive).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(uuid.NewString(), "Ada", "a@x.io", "provider", "active", "h", time.Now(), nil, nil).
			AddRow(uuid.NewString(), "Bob", "b@x.io", "provider", "active", "h", time.Now(), nil, nil))

	got, err := s.ListUsers(context.Background(), user.ListFilter{
		Role:   new(user.RoleProvider),
		Status: new(user.StatusActive),
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteUser_NotFound(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users\s+SET deleted_at = NOW\(\)`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteUser(context.Background(), id), user.ErrNotFound)
}
