// Package helpers provides test fixtures shared across packages.
package helpers

import (
	"time"

	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/pkg/randompkg"
)

// RandomAccount returns an account fixture for the given owner.
func RandomAccount(owner string) domain.Account {
	return domain.Account{
		ID:        int32(randompkg.Intn(100)) + 1,
		Owner:     owner,
		Balance:   randompkg.MoneyAmountBetween(1_000, 10_000),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

// RandomUser returns a user fixture without a hashed password.
func RandomUser() domain.UserWithoutPassword {
	return domain.UserWithoutPassword{
		Username:  randompkg.Owner(),
		FullName:  randompkg.Owner(),
		Email:     randompkg.Email(),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}
