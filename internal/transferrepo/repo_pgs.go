// Package transferrepo manages repository layer of transfers.
package transferrepo

import (
	"context"
	"database/sql"

	"github.com/go-cash/cash-app/internal/accountrepo"
	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/pkg/dbpkg"
	"github.com/go-cash/cash-app/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transfer repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns transfer RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transfer RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const createQuery = `
INSERT INTO
    transfers (from_account_id, to_account_id, amount)
VALUES
    ($1, $2, $3)
RETURNING id, from_account_id, to_account_id, amount, created_at
`

// Create appends the transfer record and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.FromAccountID, arg.ToAccountID, arg.Amount)

	var t domain.Transfer
	err := row.Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.Amount,
		&t.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transfers_from_account_id_fkey":
				return t, domain.ErrSenderNotFound
			case "transfers_to_account_id_fkey":
				return t, domain.ErrReceiverNotFound
			case "transfers_amount_check":
				return t, domain.ErrNegativeAmount
			case "transfers_accounts_check":
				return t, domain.ErrSameAccount
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT
	id, from_account_id, to_account_id, amount, created_at
FROM transfers
WHERE id = $1
`

// Get returns the transfer with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var t domain.Transfer

	err := row.Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.Amount,
		&t.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return t, domain.ErrTransferNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listTransfers = `
SELECT
	id, from_account_id, to_account_id, amount, created_at
FROM transfers
WHERE
    from_account_id = $1 OR to_account_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`

// List returns the transfers where the given account is sender or receiver.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListTransfersParams) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listTransfers,
		arg.AccountID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transfer{}

	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(
			&t.ID,
			&t.FromAccountID,
			&t.ToAccountID,
			&t.Amount,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

// Transfer moves money between two accounts.
//
// It debits the sender, credits the receiver and appends the transfer record
// within a single database transaction, so either all three effects become
// durable or none of them do. The caller is expected to hold both account
// locks for the duration of the call.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	// abort undoes any partial mutation. A failed rollback leaves the
	// transfer state unknown and is the one unrecoverable condition.
	abort := func(cause error) error {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			l.Error().
				Err(rbErr).
				Int32("from_account_id", arg.FromAccountID).
				Int32("to_account_id", arg.ToAccountID).
				Str("amount", arg.Amount).
				Msg("transfer rollback failed")

			return domain.ErrReconciliationRequired
		}

		return cause
	}

	accountRepo := accountrepo.NewRepoPGS(tx)
	transferRepo := NewTxRepoPGS(tx)

	var fromAccount, toAccount domain.Account

	// To avoid database-level deadlocks execute statements in consistent id order.
	if arg.FromAccountID < arg.ToAccountID {
		argAddBalance := addBalanceParams{
			account1ID: arg.FromAccountID,
			amount1:    "-" + arg.Amount,
			account2ID: arg.ToAccountID,
			amount2:    arg.Amount,
		}

		fromAccount, toAccount, err = addBalances(ctx, accountRepo, argAddBalance)
	} else {
		argAddBalance := addBalanceParams{
			account1ID: arg.ToAccountID,
			amount1:    arg.Amount,
			account2ID: arg.FromAccountID,
			amount2:    "-" + arg.Amount,
		}

		toAccount, fromAccount, err = addBalances(ctx, accountRepo, argAddBalance)
	}

	if err != nil {
		l.Info().Err(err).Send()
		return result, abort(err)
	}

	result.FromAccount, result.ToAccount = fromAccount, toAccount

	result.Transfer, err = transferRepo.Create(ctx, arg)
	if err != nil {
		l.Error().Err(err).Send()
		return result, abort(err)
	}

	if err := tx.Commit(); err != nil {
		// Nothing became durable; the transfer can be retried.
		l.Error().Err(err).Send()
		return domain.TransferTxResult{}, abort(errorspkg.ErrInternal)
	}

	return result, nil
}

type addBalanceParams struct {
	account1ID int32
	amount1    string
	account2ID int32
	amount2    string
}

func addBalances(ctx context.Context, r *accountrepo.RepoPGS, arg addBalanceParams) (domain.Account, domain.Account, error) {
	account1, err := r.AddBalance(ctx, arg.amount1, arg.account1ID)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	account2, err := r.AddBalance(ctx, arg.amount2, arg.account2ID)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	return account1, account2, nil
}
