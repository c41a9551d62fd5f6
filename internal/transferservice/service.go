// Package transferservice manages business logic layer of transfers.
//
// Service is the transfer coordinator: the only path allowed to move money
// between two accounts. It validates the request, serializes on both account
// locks in a fixed global order and hands the paired balance mutation plus
// record append to the repository as one all-or-nothing unit.
package transferservice

import (
	"context"
	"time"

	"github.com/go-cash/cash-app/internal/accountdelivery"
	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/internal/events"
	"github.com/go-cash/cash-app/pkg/lockpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
	Get(ctx context.Context, id int64) (domain.Transfer, error)
	List(ctx context.Context, arg domain.ListTransfersParams) ([]domain.Transfer, error)
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo           Repo
	accountService accountdelivery.Service
	locks          *lockpkg.Registry
	publisher      events.Publisher
}

// New returns transfer service struct to manage transfer business logic.
func New(tr Repo, as accountdelivery.Service, locks *lockpkg.Registry, pub events.Publisher) *Service {
	return &Service{
		repo:           tr,
		accountService: as,
		locks:          locks,
		publisher:      pub,
	}
}

// validRequest checks the transfer preconditions that require account state.
// The caller must hold both account locks so the reads cannot race an
// in-flight mutation.
func (s *Service) validRequest(ctx context.Context, fromUsername string, arg domain.CreateTransferParams, amount decimal.Decimal) error {
	l := zerolog.Ctx(ctx)

	fromAccount, err := s.accountService.Get(ctx, arg.FromAccountID)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return domain.ErrSenderNotFound
		}

		l.Error().Err(err).Send()

		return err
	}

	if fromAccount.Owner != fromUsername {
		return domain.ErrInvalidOwner
	}

	if _, err = s.accountService.Get(ctx, arg.ToAccountID); err != nil {
		if err == domain.ErrAccountNotFound {
			return domain.ErrReceiverNotFound
		}

		l.Error().Err(err).Send()

		return err
	}

	currentBalance, err := decimal.NewFromString(fromAccount.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.ErrInvalidAmount
	}

	if currentBalance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	return nil
}

// Execute validates the transfer request and then executes it.
//
// On any error the accounts are left exactly as they were, except for
// domain.ErrReconciliationRequired which reports a failed rollback.
func (s *Service) Execute(ctx context.Context, fromUsername string, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	if arg.FromAccountID == arg.ToAccountID {
		return domain.TransferTxResult{}, domain.ErrSameAccount
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.TransferTxResult{}, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.TransferTxResult{}, domain.ErrNegativeAmount
	}

	result, err := s.transferLocked(ctx, fromUsername, arg, amount)
	if err != nil {
		return domain.TransferTxResult{}, err
	}

	// Both account locks are released by now; a slow broker must not
	// extend the per-account critical section.
	event := events.TransferCompleted{
		TransferID:    result.Transfer.ID,
		FromAccountID: result.Transfer.FromAccountID,
		ToAccountID:   result.Transfer.ToAccountID,
		Amount:        result.Transfer.Amount,
		OccurredAt:    time.Now().UTC(),
	}

	if err := s.publisher.Publish(l.WithContext(context.Background()), event); err != nil {
		// The transfer is committed; a lost event must not fail it.
		l.Warn().Err(err).Int64("transfer_id", result.Transfer.ID).Msg("transfer event not published")
	}

	return result, nil
}

// transferLocked serializes on both account locks, revalidates the request
// under them and runs the transfer transaction. The locks are released before
// it returns.
func (s *Service) transferLocked(ctx context.Context, fromUsername string, arg domain.CreateTransferParams, amount decimal.Decimal) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	release, err := s.locks.Acquire(ctx, arg.FromAccountID, arg.ToAccountID)
	if err != nil {
		return domain.TransferTxResult{}, lockErr(err)
	}
	defer release()

	if err := s.validRequest(ctx, fromUsername, arg, amount); err != nil {
		return domain.TransferTxResult{}, err
	}

	// Once the mutation starts, caller cancellation is ignored until the
	// all-or-nothing sequence completes; a transfer is never left half done
	// because the client went away.
	txCtx := l.WithContext(context.Background())

	return s.repo.Transfer(txCtx, arg)
}

// Get returns the transfer with the given id if the user owns either side.
func (s *Service) Get(ctx context.Context, username string, id int64) (domain.Transfer, error) {
	transfer, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Transfer{}, err
	}

	account, err := s.accountService.GetByOwner(ctx, username)
	if err != nil {
		return domain.Transfer{}, err
	}

	if transfer.FromAccountID != account.ID && transfer.ToAccountID != account.ID {
		return domain.Transfer{}, domain.ErrTransferNotFound
	}

	return transfer, nil
}

// List returns the transfers touching the given account, which must be owned
// by the user.
func (s *Service) List(ctx context.Context, username string, arg domain.ListTransfersParams) ([]domain.Transfer, error) {
	account, err := s.accountService.Get(ctx, arg.AccountID)
	if err != nil {
		return nil, err
	}

	if account.Owner != username {
		return nil, domain.ErrInvalidOwner
	}

	return s.repo.List(ctx, arg)
}

func lockErr(err error) error {
	switch err {
	case lockpkg.ErrTimeout, context.DeadlineExceeded:
		return domain.ErrLockTimeout
	case context.Canceled:
		return domain.ErrTransferCancelled
	}

	return err
}
