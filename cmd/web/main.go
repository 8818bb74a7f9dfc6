package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minaorangina/kingdoms/config"
	"github.com/minaorangina/kingdoms/engine"
	"github.com/minaorangina/kingdoms/server"
	"github.com/minaorangina/kingdoms/store"
	"github.com/rs/zerolog/log"
)

type journal interface {
	engine.Journal
	io.Closer
}

func openJournal(ctx context.Context, cfg config.Config) (journal, error) {
	if cfg.DBDialect == "memory" {
		return store.NewMemoryJournal(), nil
	}
	return store.OpenSQLJournal(ctx, store.Dialect(cfg.DBDialect), cfg.DBDSN)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}

	logger := cfg.Logger(os.Stderr)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := openJournal(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("dialect", cfg.DBDialect).Msg("could not open journal")
	}
	defer j.Close()

	s := server.NewServer(server.ServerOpts{
		Store:          store.NewInMemoryGameStore(),
		Journal:        j,
		Tokens:         server.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         &logger,
	})
	s.Addr = cfg.Addr

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown did not finish cleanly")
	}
}
