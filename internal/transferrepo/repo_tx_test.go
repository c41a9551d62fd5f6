package transferrepo

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// TestTransferRollbackFailure drives the one unrecoverable path: the balance
// update fails mid-transaction and the rollback fails too, leaving the
// transfer state unknown.
func TestTransferRollbackFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepoPGS(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE accounts").WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback().WillReturnError(errors.New("driver: bad connection"))

	arg := domain.CreateTransferParams{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        "100",
	}

	var logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())

	_, err = repo.Transfer(ctx, arg)
	require.EqualError(t, err, domain.ErrReconciliationRequired.Error())

	require.Contains(t, logs.String(), "transfer rollback failed")
	require.Contains(t, logs.String(), `"from_account_id":1`)
	require.Contains(t, logs.String(), `"to_account_id":2`)
	require.Contains(t, logs.String(), `"amount":"100"`)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRollbackReturnsCause(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepoPGS(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE accounts").WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	arg := domain.CreateTransferParams{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        "100",
	}

	ctx := zerolog.New(nil).WithContext(context.Background())

	_, err = repo.Transfer(ctx, arg)
	require.EqualError(t, err, errorspkg.ErrInternal.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}
