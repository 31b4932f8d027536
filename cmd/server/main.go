package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/paul0vinicius/chasing-chairs/internal/config"
	"github.com/paul0vinicius/chasing-chairs/internal/history"
	"github.com/paul0vinicius/chasing-chairs/internal/httpapi"
	"github.com/paul0vinicius/chasing-chairs/internal/hub"
	"github.com/paul0vinicius/chasing-chairs/internal/music"
	"github.com/paul0vinicius/chasing-chairs/internal/room"
)

const (
	releaseVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, releaseVersion, run).ExecuteContext(ctx))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	opts := hub.Options{
		Round:   cfg.Round(),
		RoomTTL: cfg.RoomTTL,
		Logger:  log,
		Music:   music.Nop{},
		History: history.Nop{},
	}

	if cfg.RedisURL != "" {
		store, err := room.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
		log.Info("rooms stored in redis")
	}

	if cfg.MusicAPI != "" {
		opts.Music = music.NewDeezer(cfg.MusicAPI, cfg.MusicQueries, &http.Client{Timeout: cfg.MusicTimeout}, nil)
	}

	var board history.Leaderboard = history.Nop{}
	if cfg.DatabaseURL != "" {
		store, err := history.Open(cfg.DatabaseURL, log.Named("history"))
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store
		board = store
		log.Info("round history enabled")
	}

	h := hub.NewHub(ctx, opts)

	// sockets and HTTP routes share the one hub
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:         h,
			Leaderboard: board,
			PublicURL:   cfg.PublicURL,
			Origins:     cfg.Origins,
			Profile:     cfg.Profile,
			Logger:      log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("version", releaseVersion))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		h.Send(hub.ShutdownHub{})
		<-h.Done()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
