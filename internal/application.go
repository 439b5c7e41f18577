package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/bidding"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/config"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/event"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/repository"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/repository/storage"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/scheduler"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/service"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/tictactoe"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/usecase"
	"github.com/rocketscienceinc/bidtactoe-backend/transport/rest"
	"github.com/rocketscienceinc/bidtactoe-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	results, closeResults, err := openResults(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeResults(); err != nil {
			log.Error("could not close results storage", "error", err)
		}
	}()

	tiePolicy, err := bidding.ParseTiePolicy(conf.Game.TiePolicy)
	if err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}

	clk := clock.New()
	bus := event.NewBus()
	bus.Subscribe(event.LogHandler(logger))

	// bids and placements draw from separate sources; they run on different goroutines
	resolver := bidding.NewRandomResolver(bidding.NewSource(conf.Game.Seed), tiePolicy, conf.Game.RebidLimit)
	gameController := tictactoe.NewGameController(logger, resolver, bus, conf.Game.StartingBalance)

	recorder := usecase.NewResultRecorder(logger, results, gameController, clk)
	bus.Subscribe(recorder.Handle)

	gameUseCase := usecase.NewGameUseCase(logger, gameController, results)

	wsServer := websocket.New(logger, gameUseCase)
	bus.Subscribe(wsServer.Broadcast)

	if conf.Autoplay.Enabled {
		player := usecase.NewAutoPlayer(
			logger,
			gameController,
			scheduler.New(logger, clk),
			service.NewBotService(bidding.NewSource(derivedSeed(conf.Game.Seed, 1))),
			bidding.NewSource(derivedSeed(conf.Game.Seed, 2)),
			usecase.Timing{
				ThinkMin:     conf.Autoplay.ThinkMin,
				ThinkMax:     conf.Autoplay.ThinkMax,
				RestartDelay: conf.Autoplay.RestartDelay,
			},
		)
		player.Start(bus)
		defer player.Stop()
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, gameUseCase).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// openResults connects the configured result store.
func openResults(ctx context.Context, conf *config.Config) (repository.ResultRepository, func() error, error) {
	switch conf.Results.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewResultRepository(redisStorage.Connection), redisStorage.Close, nil
	default:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Results.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteResultRepository(sqliteStorage.Connection), sqliteStorage.Close, nil
	}
}

// derivedSeed keeps a fixed seed reproducible across every source; zero
// stays zero so each source is time-seeded.
func derivedSeed(seed, offset int64) int64 {
	if seed == 0 {
		return 0
	}

	return seed + offset
}
