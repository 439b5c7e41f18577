package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	game   usecase.GameUseCase
}

func New(logger *slog.Logger, game usecase.GameUseCase) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		game:   game,
	}
}

// Routes builds the HTTP API.
func (that *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(10 * time.Second))

	router.Get("/ping", that.PingHandler)

	router.Route("/api", func(r chi.Router) {
		r.Get("/game", that.GetGame)
		r.Post("/game/new", that.NewGame)
		r.Post("/game/bid", that.StartBiddingRound)
		r.Post("/game/place", that.MakeTurn)

		r.Get("/results", that.ListResults)
		r.Get("/results/{id}", that.GetResult)
	})

	return router
}

// Start serves the API until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
