package accountrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

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
	testRepo     *RepoPGS
	testUserRepo *userrepo.RepoPGS
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
	testUserRepo = userrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func createRandomUser(t *testing.T) domain.User {
	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
	}

	testUser, err := testUserRepo.Create(context.Background(), arg)
	require.NoError(t, err)
	require.NotEmpty(t, testUser)

	return testUser
}

func createRandomAccount(t *testing.T, testUser domain.User) domain.Account {
	testBalance := randompkg.MoneyAmountBetween(1_000, 10_000)

	account, err := testRepo.Create(context.Background(), testUser.Username, testBalance)
	require.NoError(t, err)
	require.NotEmpty(t, account)

	require.Equal(t, testUser.Username, account.Owner)
	require.Equal(t, testBalance, account.Balance)

	require.NotZero(t, account.ID)
	require.NotZero(t, account.CreatedAt)

	return account
}

func TestCreate(t *testing.T) {
	testUser := createRandomUser(t)
	createRandomAccount(t, testUser)
}

func TestCreateConstraintViolations(t *testing.T) {
	testUser := createRandomUser(t)
	createRandomAccount(t, testUser)

	type input struct {
		owner   string
		balance string
	}

	testCases := []struct {
		name          string
		input         input
		checkResponse func(response domain.Account, err error)
	}{
		{
			name: "ErrOwnerNotFound",
			input: input{
				"NotFound",
				randompkg.MoneyAmountBetween(1_000, 10_000),
			},
			checkResponse: func(response domain.Account, err error) {
				require.EqualError(t, err, domain.ErrOwnerNotFound.Error())
				require.Empty(t, response)
			},
		},
		{
			name: "ErrAccountAlreadyExists",
			input: input{
				testUser.Username,
				randompkg.MoneyAmountBetween(1_000, 10_000),
			},
			checkResponse: func(response domain.Account, err error) {
				require.EqualError(t, err, domain.ErrAccountAlreadyExists.Error())
				require.Empty(t, response)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			response, err := testRepo.Create(context.Background(), tc.input.owner, tc.input.balance)

			tc.checkResponse(response, err)
		})
	}
}

func TestGet(t *testing.T) {
	testUser := createRandomUser(t)
	testAccount := createRandomAccount(t, testUser)

	account2, err := testRepo.Get(context.Background(), testAccount.ID)
	require.NoError(t, err)
	require.NotEmpty(t, account2)

	require.Equal(t, testAccount.ID, account2.ID)
	require.Equal(t, testAccount.Owner, account2.Owner)
	require.Equal(t, testAccount.Balance, account2.Balance)
	require.WithinDuration(t, testAccount.CreatedAt, account2.CreatedAt, time.Second)
}

func TestGetByOwner(t *testing.T) {
	testUser := createRandomUser(t)
	testAccount := createRandomAccount(t, testUser)

	account2, err := testRepo.GetByOwner(context.Background(), testUser.Username)
	require.NoError(t, err)
	require.Equal(t, testAccount.ID, account2.ID)

	_, err = testRepo.GetByOwner(context.Background(), "nobody")
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
}

func TestDelete(t *testing.T) {
	testUser := createRandomUser(t)
	testAccount := createRandomAccount(t, testUser)

	err := testRepo.Delete(context.Background(), testAccount.ID)
	require.NoError(t, err)

	accountDeleted, err := testRepo.Get(context.Background(), testAccount.ID)
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
	require.Empty(t, accountDeleted)

	// Deleting twice reports not found.
	err = testRepo.Delete(context.Background(), testAccount.ID)
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
}

func TestAddBalance(t *testing.T) {
	testUser := createRandomUser(t)
	testAccount := createRandomAccount(t, testUser)
	testAmount := randompkg.MoneyAmountBetween(100, 1_000)

	account1Balance, err := decimal.NewFromString(testAccount.Balance)
	require.NoError(t, err)
	deltaBalance, err := decimal.NewFromString(testAmount)
	require.NoError(t, err)

	account2, err := testRepo.AddBalance(context.Background(), testAmount, testAccount.ID)
	require.NoError(t, err)
	require.NotEmpty(t, account2)

	account2Balance, err := decimal.NewFromString(account2.Balance)
	require.NoError(t, err)

	require.Equal(t, testAccount.ID, account2.ID)
	require.Equal(t, testAccount.Owner, account2.Owner)
	require.True(t, account1Balance.Add(deltaBalance).Equal(account2Balance))
}

func TestAddBalanceBelowZero(t *testing.T) {
	testUser := createRandomUser(t)
	testAccount := createRandomAccount(t, testUser)

	balance, err := decimal.NewFromString(testAccount.Balance)
	require.NoError(t, err)

	overdraft := balance.Add(decimal.NewFromInt(1)).Neg()

	_, err = testRepo.AddBalance(context.Background(), overdraft.String(), testAccount.ID)
	require.EqualError(t, err, domain.ErrInsufficientBalance.Error())

	// The failed update left the balance untouched.
	account2, err := testRepo.Get(context.Background(), testAccount.ID)
	require.NoError(t, err)
	require.Equal(t, testAccount.Balance, account2.Balance)
}
