package userservice

import (
	"context"
	"testing"
	"time"

	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/pkg/passpkg"
	"github.com/go-cash/cash-app/pkg/randompkg"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func randomUser(t *testing.T, password string) domain.User {
	hashedPassword, err := passpkg.Hash(password)
	require.NoError(t, err)

	return domain.User{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
		CreatedAt:      time.Now().Truncate(time.Second).UTC(),
	}
}

func TestCreate(t *testing.T) {
	password := randompkg.String(10)
	testUser := randomUser(t, password)

	testCases := []struct {
		name          string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.UserWithoutPassword, err error)
	}{
		{
			name: "ErrUsernameAlreadyExists",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, domain.ErrUsernameAlreadyExists)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrUsernameAlreadyExists.Error())
			},
		},
		{
			name: "OK",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.NoError(t, err)
				require.Equal(t, NewUserWithoutPassword(testUser), res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			tc.checkResponse(userService.Create(
				context.Background(),
				testUser.Username,
				password,
				testUser.FullName,
				testUser.Email))
		})
	}
}

func TestUpdate(t *testing.T) {
	testUser := randomUser(t, randompkg.String(10))

	updatedUser := testUser
	updatedUser.FullName = randompkg.Owner()
	updatedUser.Email = randompkg.Email()

	arg := domain.UpdateUserParams{
		Username: testUser.Username,
		FullName: updatedUser.FullName,
		Email:    updatedUser.Email,
	}

	testCases := []struct {
		name          string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.UserWithoutPassword, err error)
	}{
		{
			name: "ErrUserNotFound",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Update(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrUserNotFound.Error())
			},
		},
		{
			name: "ErrEmailAlreadyExists",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Update(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(domain.User{}, domain.ErrEmailAlreadyExists)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrEmailAlreadyExists.Error())
			},
		},
		{
			name: "OK",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Update(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(updatedUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.NoError(t, err)
				require.Equal(t, NewUserWithoutPassword(updatedUser), res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			tc.checkResponse(userService.Update(
				context.Background(),
				arg.Username,
				arg.FullName,
				arg.Email))
		})
	}
}

func TestCheckPassword(t *testing.T) {
	password := randompkg.String(10)
	testUser := randomUser(t, password)

	testCases := []struct {
		name          string
		password      string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.UserWithoutPassword, err error)
	}{
		{
			name:     "ErrUserNotFound",
			password: password,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrUserNotFound.Error())
			},
		},
		{
			name:     "ErrWrongPassword",
			password: "wrong" + password,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrWrongPassword.Error())
			},
		},
		{
			name:     "OK",
			password: password,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.NoError(t, err)
				require.Equal(t, NewUserWithoutPassword(testUser), res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			tc.checkResponse(userService.CheckPassword(context.Background(), testUser.Username, tc.password))
		})
	}
}

func TestGet(t *testing.T) {
	testUser := randomUser(t, randompkg.String(10))

	testCases := []struct {
		name          string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.UserWithoutPassword, err error)
	}{
		{
			name: "ErrUserNotFound",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrUserNotFound.Error())
			},
		},
		{
			name: "OK",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.NoError(t, err)
				require.Equal(t, NewUserWithoutPassword(testUser), res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			tc.checkResponse(userService.Get(context.Background(), testUser.Username))
		})
	}
}
