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
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lookup API and the puzzle builder",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// newLookup returns the remote lookup service when one is configured and the
// local store otherwise.
func newLookup(cfg *Config, store LetterStore) (LetterLookup, error) {
	if cfg.Lookup.BaseURL == "" {
		return StoreLookup{Store: store}, nil
	}
	timeout, err := cfg.LookupTimeout()
	if err != nil {
		return nil, err
	}
	return NewHTTPLookup(cfg.Lookup.BaseURL, timeout), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("letter store opened", zap.String("driver", cfg.Store.Driver), zap.String("path", cfg.Store.Path))

	lookup, err := newLookup(cfg, store)
	if err != nil {
		return err
	}
	alphabet, err := cfg.Alphabet()
	if err != nil {
		return err
	}

	var gemini *GeminiClient
	if cfg.Gemini.ProjectID != "" {
		gemini, err = NewGeminiClient(ctx, cfg.Gemini)
		if err != nil {
			return err
		}
		defer gemini.Close()
		logger.Info("gemini client initialized", zap.String("project", cfg.Gemini.ProjectID))
	} else {
		logger.Info("GCP_PROJECT_ID not set, equation scanning disabled")
	}

	srv := NewServer(store, NewSessionRegistry(lookup, logger), gemini, alphabet, logger)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.sweepLimiters(gctx.Done())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
