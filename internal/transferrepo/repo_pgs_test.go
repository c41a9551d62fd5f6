package transferrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/go-cash/cash-app/internal/accountrepo"
	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/internal/userrepo"
	"github.com/go-cash/cash-app/pkg/configpkg"
	"github.com/go-cash/cash-app/pkg/passpkg"
	"github.com/go-cash/cash-app/pkg/randompkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

var (
	testRepo        *RepoPGS
	testAccountRepo *accountrepo.RepoPGS
	testUserRepo    *userrepo.RepoPGS
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err := sql.Open(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	testRepo = NewRepoPGS(testDB)
	testAccountRepo = accountrepo.NewRepoPGS(testDB)
	testUserRepo = userrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func createRandomAccount(t *testing.T, balance string) domain.Account {
	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	testUser, err := testUserRepo.Create(context.Background(), domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
	})
	require.NoError(t, err)

	account, err := testAccountRepo.Create(context.Background(), testUser.Username, balance)
	require.NoError(t, err)
	require.NotEmpty(t, account)

	return account
}

func createRandomTransfer(t *testing.T, from, to domain.Account, amount string) domain.Transfer {
	transfer, err := testRepo.Create(context.Background(), domain.CreateTransferParams{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount,
	})
	require.NoError(t, err)
	require.NotEmpty(t, transfer)

	require.Equal(t, from.ID, transfer.FromAccountID)
	require.Equal(t, to.ID, transfer.ToAccountID)
	require.Equal(t, amount, transfer.Amount)
	require.NotZero(t, transfer.ID)
	require.NotZero(t, transfer.CreatedAt)

	return transfer
}

func TestCreate(t *testing.T) {
	account1 := createRandomAccount(t, "1000")
	account2 := createRandomAccount(t, "1000")

	createRandomTransfer(t, account1, account2, "100")
}

func TestCreateConstraintViolations(t *testing.T) {
	account1 := createRandomAccount(t, "1000")
	account2 := createRandomAccount(t, "1000")

	testCases := []struct {
		name    string
		arg     domain.CreateTransferParams
		wantErr error
	}{
		{
			name: "ErrSenderNotFound",
			arg: domain.CreateTransferParams{
				FromAccountID: -1,
				ToAccountID:   account2.ID,
				Amount:        "100",
			},
			wantErr: domain.ErrSenderNotFound,
		},
		{
			name: "ErrReceiverNotFound",
			arg: domain.CreateTransferParams{
				FromAccountID: account1.ID,
				ToAccountID:   -1,
				Amount:        "100",
			},
			wantErr: domain.ErrReceiverNotFound,
		},
		{
			name: "ErrNegativeAmount",
			arg: domain.CreateTransferParams{
				FromAccountID: account1.ID,
				ToAccountID:   account2.ID,
				Amount:        "-100",
			},
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name: "ErrSameAccount",
			arg: domain.CreateTransferParams{
				FromAccountID: account1.ID,
				ToAccountID:   account1.ID,
				Amount:        "100",
			},
			wantErr: domain.ErrSameAccount,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			transfer, err := testRepo.Create(context.Background(), tc.arg)

			require.EqualError(t, err, tc.wantErr.Error())
			require.Empty(t, transfer)
		})
	}
}

func TestGet(t *testing.T) {
	account1 := createRandomAccount(t, "1000")
	account2 := createRandomAccount(t, "1000")
	transfer := createRandomTransfer(t, account1, account2, "100")

	got, err := testRepo.Get(context.Background(), transfer.ID)
	require.NoError(t, err)
	require.Equal(t, transfer, got)

	_, err = testRepo.Get(context.Background(), -1)
	require.EqualError(t, err, domain.ErrTransferNotFound.Error())
}

func TestList(t *testing.T) {
	account1 := createRandomAccount(t, "10000")
	account2 := createRandomAccount(t, "10000")

	for i := 0; i < 5; i++ {
		createRandomTransfer(t, account1, account2, "100")
		createRandomTransfer(t, account2, account1, "100")
	}

	transfers, err := testRepo.List(context.Background(), domain.ListTransfersParams{
		AccountID: account1.ID,
		Limit:     5,
		Offset:    5,
	})
	require.NoError(t, err)
	require.Len(t, transfers, 5)

	for _, transfer := range transfers {
		require.NotEmpty(t, transfer)
		require.True(t, transfer.FromAccountID == account1.ID || transfer.ToAccountID == account1.ID)
	}
}

func TestTransfer(t *testing.T) {
	account1 := createRandomAccount(t, "1000")
	account2 := createRandomAccount(t, "1000")

	result, err := testRepo.Transfer(context.Background(), domain.CreateTransferParams{
		FromAccountID: account1.ID,
		ToAccountID:   account2.ID,
		Amount:        "100",
	})
	require.NoError(t, err)

	require.Equal(t, account1.ID, result.Transfer.FromAccountID)
	require.Equal(t, account2.ID, result.Transfer.ToAccountID)
	require.Equal(t, "100", result.Transfer.Amount)
	require.NotZero(t, result.Transfer.ID)

	fromBalance, err := decimal.NewFromString(result.FromAccount.Balance)
	require.NoError(t, err)
	toBalance, err := decimal.NewFromString(result.ToAccount.Balance)
	require.NoError(t, err)

	require.True(t, fromBalance.Equal(decimal.NewFromInt(900)))
	require.True(t, toBalance.Equal(decimal.NewFromInt(1100)))

	// The record is durable.
	got, err := testRepo.Get(context.Background(), result.Transfer.ID)
	require.NoError(t, err)
	require.Equal(t, result.Transfer, got)
}

func TestTransferInsufficientBalance(t *testing.T) {
	account1 := createRandomAccount(t, "50")
	account2 := createRandomAccount(t, "1000")

	result, err := testRepo.Transfer(context.Background(), domain.CreateTransferParams{
		FromAccountID: account1.ID,
		ToAccountID:   account2.ID,
		Amount:        "100",
	})
	require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
	require.Empty(t, result.Transfer)

	// Neither side changed.
	got1, err := testAccountRepo.Get(context.Background(), account1.ID)
	require.NoError(t, err)
	require.Equal(t, account1.Balance, got1.Balance)

	got2, err := testAccountRepo.Get(context.Background(), account2.ID)
	require.NoError(t, err)
	require.Equal(t, account2.Balance, got2.Balance)
}

func TestTransferConcurrent(t *testing.T) {
	account1 := createRandomAccount(t, "1000")
	account2 := createRandomAccount(t, "1000")

	const n = 10

	var wg sync.WaitGroup

	errs := make(chan error, 2*n)

	// Opposite directions in parallel must not deadlock or lose money.
	for i := 0; i < n; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := testRepo.Transfer(context.Background(), domain.CreateTransferParams{
				FromAccountID: account1.ID,
				ToAccountID:   account2.ID,
				Amount:        "10",
			})
			errs <- err
		}()

		go func() {
			defer wg.Done()

			_, err := testRepo.Transfer(context.Background(), domain.CreateTransferParams{
				FromAccountID: account2.ID,
				ToAccountID:   account1.ID,
				Amount:        "10",
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got1, err := testAccountRepo.Get(context.Background(), account1.ID)
	require.NoError(t, err)
	got2, err := testAccountRepo.Get(context.Background(), account2.ID)
	require.NoError(t, err)

	balance1, err := decimal.NewFromString(got1.Balance)
	require.NoError(t, err)
	balance2, err := decimal.NewFromString(got2.Balance)
	require.NoError(t, err)

	require.True(t, balance1.Equal(decimal.NewFromInt(1000)))
	require.True(t, balance2.Equal(decimal.NewFromInt(1000)))
}
