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

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/cpl-agent/internal/agent/viral"
	"github.com/cpl-agent/internal/browser"
	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/storage"
	storagefactory "github.com/cpl-agent/internal/storage/factory"
	"github.com/cpl-agent/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	steps   storage.StepStore
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cpl-scheduler",
		Short: "Background scheduler for viral content analysis",
		Long: `Periodically sweeps the session directory and runs the viral content analysis
for every session whose research is complete but not yet analyzed.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting CPL Agent Scheduler")

	steps, err = storagefactory.NewStepStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open step storage: %w", err)
	}
	defer steps.Close()

	if cfg.Metrics.Enabled {
		metrics.MustRegister(prometheus.DefaultRegisterer)
	}

	server := newHealthServer(cfg.Scheduler.HealthPort, cfg.Metrics.Enabled)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Health check server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health server failed")
		}
	}()

	selectors := viral.DefaultSelectors()
	if cfg.Capture.SelectorsFile != "" {
		selectors, err = viral.LoadSelectorSet(cfg.Capture.SelectorsFile)
		if err != nil {
			return err
		}
	}

	launcher := browser.NewChromeLauncher(browser.Options{
		ExecPath:     cfg.Capture.ChromePath,
		WindowWidth:  cfg.Capture.WindowWidth,
		WindowHeight: cfg.Capture.WindowHeight,
	}, log)
	analyzer := viral.NewAnalyzer(viral.SettingsFromConfig(cfg), launcher, selectors, log).WithStepStore(steps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One sweep at a time
	c := cron.New(cron.WithLogger(cronLogger{log}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})))

	_, err = c.AddFunc(cfg.Scheduler.ViralSweepCron, func() {
		log.Info().Msg("Running scheduled viral sweep")

		analyzed, err := analyzer.Sweep(ctx, cfg.Scheduler.SearchQuery)
		if err != nil {
			log.Error().Err(err).Int("analyzed", analyzed).Msg("Scheduled viral sweep had failures")
			return
		}

		log.Info().Int("analyzed", analyzed).Msg("Scheduled viral sweep completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule viral sweep: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.ViralSweepCron).Msg("Viral sweep scheduled")

	c.Start()
	log.Info().Msg("Scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	cancel()
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// newHealthServer serves /health and, when enabled, prometheus /metrics
func newHealthServer(port string, withMetrics bool) *http.Server {
	if port == "" {
		port = "10000"
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("CPL Agent Scheduler"))
	})
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}
