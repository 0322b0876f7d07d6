package postgres

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"ecommerce-backend/internal/core/ports"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_products_name_ci"}, ports.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ports.ErrReferenced},
		{"restrict", &pgconn.PgError{Code: pgerrcode.RestrictViolation}, ports.ErrReferenced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate("op", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, strings.HasPrefix(err.Error(), "op: "))
		})
	}
}

func TestTranslate_PassesThroughOtherErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := translate("insert order", cause)

	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ports.ErrDuplicate)

	check := translate("update wallet", &pgconn.PgError{Code: pgerrcode.CheckViolation})
	assert.NotErrorIs(t, check, ports.ErrDuplicate)
	assert.NotErrorIs(t, check, ports.ErrReferenced)
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		body, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}
}

func TestMigrations_EnforceLedgerConstraints(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/00001_init_schema.sql")
	require.NoError(t, err)
	schema := string(body)

	assert.Contains(t, schema, "CHECK (balance >= 0)")
	assert.Contains(t, schema, "CHECK (stock_quantity >= 0)")
	assert.Regexp(t, `user_id\s+UUID\s+NOT NULL UNIQUE`, schema)
	assert.Contains(t, schema, "ON products (LOWER(name))")
	assert.Contains(t, schema, "REFERENCES products (id) ON DELETE RESTRICT")
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())

	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	assert.NoError(t, hc.Ping(context.Background()))

	mock.ExpectExec("SELECT 1").WillReturnError(errors.New("down"))
	assert.Error(t, hc.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_Begin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tr := NewTransactor(mock)

	mock.ExpectBegin()
	tx, err := tr.Begin(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tx)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	_, err = tr.Begin(context.Background())
	assert.ErrorContains(t, err, "begin transaction")

	assert.NoError(t, mock.ExpectationsWereMet())
}
