// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-cash/cash-app/internal/accountdelivery"
	"github.com/go-cash/cash-app/internal/accountrepo"
	"github.com/go-cash/cash-app/internal/accountservice"
	"github.com/go-cash/cash-app/internal/events"
	"github.com/go-cash/cash-app/internal/events/kafka"
	"github.com/go-cash/cash-app/internal/middleware"
	"github.com/go-cash/cash-app/internal/sessiondelivery"
	"github.com/go-cash/cash-app/internal/sessionrepo"
	"github.com/go-cash/cash-app/internal/sessionservice"
	"github.com/go-cash/cash-app/internal/transferdelivery"
	"github.com/go-cash/cash-app/internal/transferrepo"
	"github.com/go-cash/cash-app/internal/transferservice"
	"github.com/go-cash/cash-app/internal/userdelivery"
	"github.com/go-cash/cash-app/internal/userrepo"
	"github.com/go-cash/cash-app/internal/userservice"
	"github.com/go-cash/cash-app/pkg/configpkg"
	"github.com/go-cash/cash-app/pkg/lockpkg"
	"github.com/go-cash/cash-app/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	locks := lockpkg.NewRegistry(config.TransferLockTimeout)

	var publisher events.Publisher = events.NopPublisher{}
	if config.KafkaBrokers != "" {
		publisher = kafka.NewPublisher(strings.Split(config.KafkaBrokers, ","))
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo, locks)
	transferService := transferservice.New(transferRepo, accountService, locks, publisher)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService, accountService)
	accountHandler := accountdelivery.NewHandler(accountService)
	transferHandler := transferdelivery.NewHandler(transferService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/users/me", userHandler.Get)
	authRoutes.PUT("/users/me", userHandler.Update)

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts/me", accountHandler.GetByOwner)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.GET("/accounts/:id/balance", accountHandler.GetBalance)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)
	authRoutes.POST("/accounts/:id/deposit", accountHandler.Deposit)
	authRoutes.POST("/accounts/:id/withdraw", accountHandler.Withdraw)

	authRoutes.POST("/transfers", transferHandler.Create)
	authRoutes.GET("/transfers", transferHandler.List)
	authRoutes.GET("/transfers/:id", transferHandler.Get)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
