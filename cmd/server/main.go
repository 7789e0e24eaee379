package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/dialnet/internal/adapters/http"
	"github.com/dkeye/dialnet/internal/app"
	"github.com/dkeye/dialnet/internal/app/orch"
	"github.com/dkeye/dialnet/internal/config"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	filter := core.NewLiveFilter(cfg.BannedWords, cfg.MaskRune())
	config.Watch(cfg, func(next *config.Config) {
		filter.Update(next.BannedWords, next.MaskRune())
		log.Info().Strs("terms", next.BannedWords).Msg("content filter reloaded")
	})

	public := make([]app.PublicRoom, 0, len(cfg.PublicRooms))
	for _, r := range cfg.PublicRooms {
		public = append(public, app.PublicRoom{ID: domain.RoomID(r.ID), Name: domain.RoomName(r.Name)})
	}

	metrics := app.NewMetrics()
	reg := app.NewRegistry()
	manager := app.NewRoomManager(public, app.RoomManagerOptions{
		HistoryCapacity: cfg.HistoryCapacity,
		Filter:          filter,
		PasswordCost:    cfg.PasswordCost,
	})

	var policy app.Policy = app.SimplePolicy{}
	if cfg.SlowPolicy == "tolerate" {
		policy = app.TolerantPolicy{}
	}

	o := &orch.Orchestrator{
		Registry:      reg,
		Rooms:         manager,
		Policy:        policy,
		Events:        &app.Broadcaster{Registry: reg, Metrics: metrics},
		Metrics:       metrics,
		HistoryReplay: cfg.HistoryReplay,
	}

	r := router.SetupRouter(ctx, cfg, o, metrics)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Int("rooms", len(public)).Msg("DialNet server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return o.RunRoomJanitor(gctx, cfg.JanitorInterval, cfg.PrivateRoomTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
