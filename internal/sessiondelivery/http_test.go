package sessiondelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-cash/cash-app/internal/domain"
	"github.com/go-cash/cash-app/pkg/errorspkg"
	"github.com/go-cash/cash-app/pkg/randompkg"
	"github.com/go-cash/cash-app/pkg/tokenpkg"
	"github.com/go-cash/cash-app/pkg/web"
	"github.com/golang/mock/gomock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestRenewAccessToken(t *testing.T) {
	refreshToken := randompkg.String(32)
	accessToken := randompkg.String(32)
	accessTokenExpiresAt := time.Now().Add(time.Minute).Truncate(time.Second).UTC()

	serviceErrors := []struct {
		err        error
		statusCode int
	}{
		{tokenpkg.ErrInvalidToken, http.StatusUnauthorized},
		{tokenpkg.ErrExpiredToken, http.StatusUnauthorized},
		{domain.ErrBlockedSession, http.StatusUnauthorized},
		{domain.ErrInvalidUser, http.StatusUnauthorized},
		{domain.ErrMismatchedRefreshToken, http.StatusUnauthorized},
		{domain.ErrExpiredSession, http.StatusUnauthorized},
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{errorspkg.ErrInternal, http.StatusInternalServerError},
	}

	type testCase struct {
		name           string
		requestBody    gin.H
		buildStubs     func(sessionService *MockService)
		wantStatusCode int
		wantError      string
	}

	testCases := []testCase{
		{
			name:        "OK",
			requestBody: gin.H{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return(accessToken, accessTokenExpiresAt, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "MissingRefreshToken",
			requestBody: gin.H{},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, se := range serviceErrors {
		se := se

		testCases = append(testCases, testCase{
			name:        se.err.Error(),
			requestBody: gin.H{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return("", time.Time{}, se.err)
			},
			wantStatusCode: se.statusCode,
			wantError:      se.err.Error(),
		})
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			sessionService := NewMockService(ctrl)
			sessionHandler := NewHandler(sessionService)

			server := gin.New()
			server.POST("/sessions", sessionHandler.RenewAccessToken)

			tc.buildStubs(sessionService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			if tc.wantStatusCode != http.StatusOK {
				var res web.Response
				if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
					t.Fatalf("Decoding response body error: %v", err)
				}

				if tc.wantError != "" && res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			var res renewAccessTokenResponse
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if res.AccessToken != accessToken {
				t.Errorf("resp.AccessToken=%q, want %q", res.AccessToken, accessToken)
			}
			if !res.AccessTokenExpiresAt.Equal(accessTokenExpiresAt) {
				t.Errorf("resp.AccessTokenExpiresAt=%v, want %v", res.AccessTokenExpiresAt, accessTokenExpiresAt)
			}
		})
	}
}
