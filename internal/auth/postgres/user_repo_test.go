// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth/postgres"
)

func newUserFixture(t *testing.T) *auth.User {
	t.Helper()
	user, err := auth.NewUser("Dana Doe", "dana@example.com", auth.RoleDoctor)
	require.NoError(t, err)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("successful insert", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUserFixture(t)
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Name, user.Email, "doctor", "hash123", user.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewUserRepository(mock)
		assert.NoError(t, repo.Create(context.Background(), user, "hash123"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicateEmail", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUserFixture(t)
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Name, user.Email, "doctor", "hash123", user.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := postgres.NewUserRepository(mock)
		err = repo.Create(context.Background(), user, "hash123")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other database error is not a duplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUserFixture(t)
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Name, user.Email, "doctor", "hash123", user.CreatedAt).
			WillReturnError(errors.New("connection refused"))

		repo := postgres.NewUserRepository(mock)
		err = repo.Create(context.Background(), user, "hash123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrDuplicateEmail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	userID := uuid.New()
	created := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
			AddRow(userID.String(), "Dana Doe", "dana@example.com", "admin", created)
		mock.ExpectQuery(`SELECT id, name, email, role, created_at`).
			WithArgs(userID.String()).
			WillReturnRows(rows)

		repo := postgres.NewUserRepository(mock)
		user, err := repo.GetByID(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, auth.RoleAdmin, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, name, email, role, created_at`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "created_at"}))

		repo := postgres.NewUserRepository(mock)
		_, err = repo.GetByID(context.Background(), userID)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt id in database", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
			AddRow("not-a-uuid", "Dana Doe", "dana@example.com", "admin", created)
		mock.ExpectQuery(`SELECT id, name, email, role, created_at`).
			WithArgs(userID.String()).
			WillReturnRows(rows)

		repo := postgres.NewUserRepository(mock)
		_, err = repo.GetByID(context.Background(), userID)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetCredentials(t *testing.T) {
	userID := uuid.New()
	created := time.Now().UTC()

	t.Run("returns user and hash separately", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "name", "email", "role", "created_at", "password_hash"}).
			AddRow(userID.String(), "Dana Doe", "dana@example.com", "doctor", created, "$argon2id$hash")
		mock.ExpectQuery(`SELECT id, name, email, role, created_at, password_hash`).
			WithArgs("dana@example.com").
			WillReturnRows(rows)

		repo := postgres.NewUserRepository(mock)
		user, hash, err := repo.GetCredentials(context.Background(), "dana@example.com")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "$argon2id$hash", hash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, name, email, role, created_at, password_hash`).
			WithArgs("ghost@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "created_at", "password_hash"}))

		repo := postgres.NewUserRepository(mock)
		_, _, err = repo.GetCredentials(context.Background(), "ghost@example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	userID := uuid.New()

	t.Run("updates existing user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET password_hash`).
			WithArgs(userID.String(), "newhash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewUserRepository(mock)
		assert.NoError(t, repo.UpdatePassword(context.Background(), userID, "newhash"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE users SET password_hash`).
			WithArgs(userID.String(), "newhash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewUserRepository(mock)
		err = repo.UpdatePassword(context.Background(), userID, "newhash")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	mock.ExpectExec(`DELETE FROM users WHERE id`).
		WithArgs(userID.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := postgres.NewUserRepository(mock)
	assert.NoError(t, repo.Delete(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
