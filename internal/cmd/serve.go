package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openscribe/openscribe/internal/observability"
	"github.com/openscribe/openscribe/internal/server"
	"github.com/openscribe/openscribe/internal/server/handlers"
	"github.com/openscribe/openscribe/internal/service"
	"github.com/openscribe/openscribe/internal/transcriber"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the transcription service",
	Long: `Run the HTTP service: sweep orphaned upload directories, start the
worker pool, and accept submissions until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Override listen host")
	serveCmd.Flags().Int("port", 0, "Override listen port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	logger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := transcriber.New(transcriber.Config{
		ExecutablePath:      cfg.Transcriber.ExecutablePath,
		Model:               cfg.Transcriber.Model,
		Language:            cfg.Transcriber.Language,
		AdditionalArguments: cfg.Transcriber.ExtraArgs(),
		OutputFormats:       cfg.Transcriber.OutputFormats,
	}, logger)

	svc := service.New(cfg, runner, logger)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	srv := server.New(cfg.Server, svc, handlers.VersionInfo{
		Version: versionInfo.Version,
		Commit:  versionInfo.Commit,
	}, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr()))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("worker shutdown", zap.Error(err))
	}

	logger.Info("stopped")
	return nil
}
