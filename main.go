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

	"github.com/giygas/drugchecker-api/analyzer"
	"github.com/giygas/drugchecker-api/config"
	"github.com/giygas/drugchecker-api/data"
	"github.com/giygas/drugchecker-api/document"
	"github.com/giygas/drugchecker-api/handlers"
	"github.com/giygas/drugchecker-api/health"
	"github.com/giygas/drugchecker-api/logging"
	"github.com/giygas/drugchecker-api/scheduler"
	"github.com/giygas/drugchecker-api/server"
	"github.com/giygas/drugchecker-api/validation"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "drugchecker",
		Short:        "Pregnancy compatibility checks for drugs mentioned in clinical documents",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(drugsCmd())
	rootCmd.AddCommand(validateLexiconCmd())

	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return err
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	policy, err := analyzer.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		return err
	}

	store := data.NewLexiconContainer(policy)
	store.SetServerStartTime(time.Now())

	reloadTimes := config.ReloadTimes(cfg.LexiconReload)
	sched := scheduler.NewScheduler(store, cfg.LexiconFile, reloadTimes)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(
		store,
		document.DefaultRegistry(),
		validation.NewInputValidator(cfg.MaxUploadSize, cfg.MaxRequestBody),
		health.NewHealthChecker(store, reloadTimes),
		handlers.Limits{MaxUploadSize: cfg.MaxUploadSize, MaxRequestBody: cfg.MaxRequestBody},
	)
	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
