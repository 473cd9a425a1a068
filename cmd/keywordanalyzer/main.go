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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"keywordanalyzer/internal/api/v1/router"
	"keywordanalyzer/internal/cache"
	"keywordanalyzer/internal/config"
	"keywordanalyzer/internal/debug"
	"keywordanalyzer/internal/decode"
	"keywordanalyzer/internal/fetch"
	"keywordanalyzer/internal/input"
	"keywordanalyzer/internal/log"
	"keywordanalyzer/internal/model"
	"keywordanalyzer/internal/report"
	"keywordanalyzer/internal/service"
)

const (
	exitOK = iota
	exitUsage
	exitInput
	exitReport
)

// exitError carries an explicit process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, input.ErrNotFound), errors.Is(err, input.ErrNotReadable):
		return exitInput
	case errors.Is(err, report.ErrWrite):
		return exitReport
	default:
		return exitUsage
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "keywordanalyzer --url FILE --keywords FILE --output FILE",
		Short:         "Count keyword occurrences across a list of web resources",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if err := cfg.Validate(); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if err := log.InitLogger(cfg.LogLevel); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			defer log.Sync()

			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	for _, path := range []string{cfg.URLFile, cfg.KeywordFile} {
		if err := input.Check(path); err != nil {
			return err
		}
	}

	urls, err := input.ReadLines(cfg.URLFile)
	if err != nil {
		return err
	}
	keywords, err := input.ReadLines(cfg.KeywordFile)
	if err != nil {
		return err
	}

	decoder, err := decode.New(cfg.Encodings, nil)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	analyzer := service.NewAnalyzer(
		fetch.NewClient(cfg.FetchConfig()),
		decoder,
		cache.New(cfg.CacheTTL),
		cfg.Workers,
	)

	if cfg.MetricsAddr != "" {
		stopOps := startOpsServer(cfg.MetricsAddr, analyzer)
		defer stopOps()
	}
	if cfg.IsDev() && cfg.PprofAddr != "" {
		debug.StartPprof(ctx, cfg.PprofAddr)
	}

	start := time.Now()
	records := analyzer.Analyze(ctx, urls, keywords)

	if err := report.WriteCSV(cfg.OutputFile, records, keywords); err != nil {
		return err
	}

	failed := 0
	for _, rec := range records {
		if rec.Error == model.ErrorFailed {
			failed++
		}
	}
	log.Logger.Info("analysis complete",
		zap.Int("urls", len(records)),
		zap.Int("failed", failed),
		zap.String("output", cfg.OutputFile),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// startOpsServer serves health and metrics on addr and returns its shutdown func.
func startOpsServer(addr string, analyzer *service.Analyzer) func() {
	server := &http.Server{
		Addr:              addr,
		Handler:           router.NewOpsRouter(analyzer.Progress),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Logger.Info("ops server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Logger.Error("ops server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Logger.Warn("ops server forced to shutdown", zap.Error(err))
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "keywordanalyzer:", err)
	}
	os.Exit(exitCode(err))
}
