package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/eskrenkovic/matchroom/internal/clock"
	"github.com/eskrenkovic/matchroom/internal/config"
	"github.com/eskrenkovic/matchroom/internal/modules/auth"
	authcommands "github.com/eskrenkovic/matchroom/internal/modules/auth/commands"
	authdomain "github.com/eskrenkovic/matchroom/internal/modules/auth/domain"
	"github.com/eskrenkovic/matchroom/internal/modules/core"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/archive"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/chessrules"
	gamesessioncommands "github.com/eskrenkovic/matchroom/internal/modules/game-session/commands"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/matchmaking"
	gamesessionqueries "github.com/eskrenkovic/matchroom/internal/modules/game-session/queries"
	"github.com/eskrenkovic/matchroom/internal/modules/gateway"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type Server interface {
	Start() error
	Stop(ctx context.Context) error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for an application.
type HTTPServer struct {
	server     *http.Server
	logger     *zap.Logger
	matchmaker *matchmaking.Matchmaker
	gateway    *gateway.Handler
	store      archive.Store
}

func NewHTTPServer(ctx context.Context, config config.Config) (*HTTPServer, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := newStore(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := authdomain.NewTokens(config.TokenSecret, config.TokenTTL, clock.Real())
	if err != nil {
		return nil, err
	}

	matchmaker := matchmaking.NewMatchmaker(matchmaking.Options{
		TimeControls:     config.TimeControls,
		Oracles:          chessrules.Factory(),
		Logger:           logger,
		Recorder:         store,
		InviteExpiry:     config.InviteExpiry,
		QueueLockTimeout: config.QueueLockTimeout,
		MaxChatLength:    config.MaxChatLength,
	})

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: logger}
	requestValidationBehavior := core.RequestValidationBehavior{Classify: gamesessioncommands.ErrorCode}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	// handler registration

	if err := gamesessioncommands.RegisterHandlers(matchmaker); err != nil {
		return nil, err
	}

	if err := gamesessionqueries.RegisterHandlers(matchmaker, store); err != nil {
		return nil, err
	}

	if err := auth.RegisterHandlers(tokens); err != nil {
		return nil, err
	}

	ws := gateway.NewHandler(gateway.Options{
		Authenticator: tokens,
		Sessions:      matchmaker.Registry(),
		Logger:        logger,
	})

	// http

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(core.CorrelationIDHTTPMiddleware)
	r.Use(loggerMiddleware(logger))

	r.Get("/health", handleHealth)
	r.Get("/queues", gamesessionqueries.HandleGetQueueStatus)
	r.Post("/auth/guest", authcommands.HandleIssueGuestToken)
	r.Handle("/ws", ws)

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticationMiddleware(tokens))

		r.Get("/sessions/{participantID}", gamesessionqueries.HandleGetParticipantSession)
		r.Get("/participants/{participantID}/games", gamesessionqueries.HandleGetFinishedGames)
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	return &HTTPServer{
		server:     server,
		logger:     logger,
		matchmaker: matchmaker,
		gateway:    ws,
		store:      store,
	}, nil
}

// Handler exposes the router, used by tests to serve without listening.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop ends running games, closes client sockets and waits for in flight
// requests before releasing the archive.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.matchmaker.Close(ctx)
	s.gateway.Close()

	err := s.server.Shutdown(ctx)
	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	s.logger.Info("server stopped")
	return err
}

func newStore(ctx context.Context, config config.Config, logger *zap.Logger) (archive.Store, error) {
	if config.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, finished games are kept in memory")
		return archive.NewMemoryStore(archive.DefaultMemoryCapacity), nil
	}

	return archive.OpenPostgres(ctx, config.DatabaseURL, config.MigrationsPath)
}

func loggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestLogger := logger.With(zap.String("correlation_id", core.CorrelationID(r.Context())))
			next.ServeHTTP(w, r.WithContext(core.WithLogger(r.Context(), requestLogger)))
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	core.WriteOK(w, r, map[string]string{"status": "ok"})
}
