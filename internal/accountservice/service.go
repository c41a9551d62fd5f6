// Package accountservice manages business logic layer of accounts.
//
// It is the only layer allowed to change account balances outside the
// transfer transaction: Credit and Debit serve the funding and withdrawal
// flows, each serialized on the account lock shared with the transfer
// coordinator.
package accountservice

import (
	"context"

	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/pkg/lockpkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, owner, balance string) (domain.Account, error)
	Get(ctx context.Context, id int32) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
	AddBalance(ctx context.Context, amount string, id int32) (domain.Account, error)
	Delete(ctx context.Context, id int32) error
}

// Service facilitates account service layer logic.
type Service struct {
	repo  Repo
	locks *lockpkg.Registry
}

// New returns account service struct to manage account business logic.
func New(ar Repo, locks *lockpkg.Registry) *Service {
	return &Service{
		repo:  ar,
		locks: locks,
	}
}

// Create creates an account with zero balance for the given owner.
func (s *Service) Create(ctx context.Context, owner string) (domain.Account, error) {
	account, err := s.repo.Create(ctx, owner, "0")
	if err != nil {
		return account, err
	}

	return account, nil
}

// Get returns the account with the given account ID.
func (s *Service) Get(ctx context.Context, id int32) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// GetByOwner returns the account owned by the given user.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	account, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return account, err
	}

	return account, nil
}

// Delete soft-deletes the account with the given id.
func (s *Service) Delete(ctx context.Context, id int32) error {
	return s.repo.Delete(ctx, id)
}

// GetBalance returns the current balance of the account.
func (s *Service) GetBalance(ctx context.Context, id int32) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := decimal.NewFromString(account.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return balance, nil
}

// Credit increases the account balance by amount and returns the updated account.
func (s *Service) Credit(ctx context.Context, id int32, amount string) (domain.Account, error) {
	amountDecimal, err := validAmount(amount)
	if err != nil {
		return domain.Account{}, err
	}

	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return domain.Account{}, lockErr(err)
	}
	defer release()

	return s.repo.AddBalance(ctx, amountDecimal.String(), id)
}

// Debit decreases the account balance by amount and returns the updated account.
//
// The balance floor is checked under the account lock before the mutation;
// a debit below zero fails with domain.ErrInsufficientBalance and changes
// nothing.
func (s *Service) Debit(ctx context.Context, id int32, amount string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := validAmount(amount)
	if err != nil {
		return domain.Account{}, err
	}

	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return domain.Account{}, lockErr(err)
	}
	defer release()

	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	balance, err := decimal.NewFromString(account.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, domain.ErrInvalidAmount
	}

	if balance.LessThan(amountDecimal) {
		return domain.Account{}, domain.ErrInsufficientBalance
	}

	return s.repo.AddBalance(ctx, amountDecimal.Neg().String(), id)
}

func validAmount(amount string) (decimal.Decimal, error) {
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrNegativeAmount
	}

	return amountDecimal, nil
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
