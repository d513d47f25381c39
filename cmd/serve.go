package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sahilg28/skillsync-backend/internal/httpapi"
	"github.com/sahilg28/skillsync-backend/internal/matching"
	"github.com/sahilg28/skillsync-backend/internal/seed"
	"github.com/sahilg28/skillsync-backend/internal/store"
	"github.com/sahilg28/skillsync-backend/internal/sweeper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting skillsync",
		zap.String("version", version),
		zap.String("environment", config.Environment),
		zap.String("store", config.Store.Driver),
	)

	st, err := store.Open(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	if store.IsEphemeral(config.Store) {
		if err := seedEphemeral(ctx, st); err != nil {
			logger.Fatal("seeding the memory store", zap.Error(err))
		}
		logger.Info("memory store seeded with the built-in jobs")
	}

	publisher, closePublisher, err := newPublisher(ctx, config.Events, logger)
	if err != nil {
		logger.Fatal("connecting to the event bus", zap.Error(err))
	}
	defer closePublisher()

	gateway := newGateway(ctx, config.AI, logger)
	matcher := matching.NewMatcher(st, st, gateway, matchingConfig(config), logger.Named("matching"))

	handler := httpapi.NewHandler(httpapi.Deps{
		Store:      st,
		Matcher:    matcher,
		Publisher:  publisher,
		Logger:     logger.Named("http"),
		Production: config.Production(),
		HardDelete: config.Jobs.HardDelete,
	})

	srv := &http.Server{
		Addr:              config.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: config.HTTP.ReadTimeout,
		ReadTimeout:       config.HTTP.ReadTimeout,
		WriteTimeout:      config.HTTP.WriteTimeout,
	}

	sw := sweeper.New(st, publisher, config.Jobs.Sweeper, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sw.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func seedEphemeral(ctx context.Context, st store.Store) error {
	jobs, err := seed.Load("")
	if err != nil {
		return err
	}
	return st.ReplaceJobs(ctx, jobs)
}
