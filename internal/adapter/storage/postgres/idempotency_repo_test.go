package postgres

import (
	"context"
	"testing"
	"time"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	log := &domain.IdempotencyLog{
		Key:          domain.BuildPurchaseIdempotencyKey(uuid.New(), "cart-1"),
		OrderID:      uuid.New(),
		ResponseJSON: []byte(`{"order":{}}`),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.OrderID, log.ResponseJSON, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.OrderID, log.ResponseJSON, log.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idempotency_logs_pkey"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, log))
	assert.ErrorIs(t, repo.Create(context.Background(), tx, log), ports.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	orderID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	cols := []string{"key", "order_id", "response_json", "created_at"}

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key = \\$1").
		WithArgs("k1").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("k1", orderID, []byte(`{}`), now))
	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key = \\$1").
		WithArgs("k2").
		WillReturnRows(pgxmock.NewRows(cols))

	got, err := repo.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, orderID, got.OrderID)

	missing, err := repo.Get(context.Background(), "k2")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
