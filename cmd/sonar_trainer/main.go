// Command sonar_trainer runs a configured training scenario headless and
// records the debrief.
//
// Usage:
//
//	sonar_trainer [run|setupdb|migratebackups] [-config dir]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/api"
	"github.com/OCAP2/sonar-trainer/internal/config"
	"github.com/OCAP2/sonar-trainer/internal/database"
	"github.com/OCAP2/sonar-trainer/internal/dispatcher"
	"github.com/OCAP2/sonar-trainer/internal/influx"
	"github.com/OCAP2/sonar-trainer/internal/logging"
	"github.com/OCAP2/sonar-trainer/internal/monitor"
	intOtel "github.com/OCAP2/sonar-trainer/internal/otel"
	"github.com/OCAP2/sonar-trainer/internal/parser"
	"github.com/OCAP2/sonar-trainer/internal/sim"
	"github.com/OCAP2/sonar-trainer/internal/storage"
	"github.com/OCAP2/sonar-trainer/pkg/core"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "sonar_trainer"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// DBLog receives database and influx manager output
	DBLog zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFile     *os.File
	LogFilePath string

	SessionStartTime time.Time = time.Now()

	session *sim.Session
)

func setupLogging(configDir string) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}

	LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)
	var rotateErr error
	if _, err := os.Stat(LogFilePath); err == nil {
		rotateErr = os.Rename(LogFilePath, LogFilePath+".old")
	}

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", LogFilePath, err)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    LogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
			Traces:       otelCfg.Traces,
			SampleRatio:  otelCfg.SampleRatio,
			Metrics:      otelCfg.Metrics,
			MetricPeriod: otelCfg.MetricPeriod,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	opts := []logging.SetupOption{
		logging.WithContext(func() []slog.Attr {
			if session == nil {
				return nil
			}
			return []slog.Attr{slog.String("session", session.ID())}
		}),
	}
	if config.GetBool("graylog.enabled") {
		opts = append(opts, logging.WithGraylog(config.GetString("graylog.address")))
	}
	SlogManager.Setup(LogFile, config.GetString("logLevel"), otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "buildDate", BuildDate)
	if rotateErr != nil {
		Logger.Warn("Failed to keep previous log file, appending to it", "error", rotateErr)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString("logLevel")))
	if err != nil {
		level = zerolog.InfoLevel
	}
	DBLog = zerolog.New(io.MultiWriter(LogFile, zerolog.ConsoleWriter{Out: os.Stdout})).
		Level(level).With().Timestamp().Str("component", "db").Logger()
	return nil
}

func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown: %v\n", err)
		}
	}
	if SlogManager != nil {
		SlogManager.Close()
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

func startMetricsServer(collector *monitor.Collector) *http.Server {
	cfg := config.GetMetricsConfig()
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("Metrics server failed", "error", err)
		}
	}()
	Logger.Info("Serving metrics", "address", cfg.Listen)
	return srv
}

func connectInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	m := influx.NewManager(cfg, DBLog)
	if err := m.Connect(ctx); err != nil {
		Logger.Error("Failed to set up InfluxDB telemetry", "error", err)
		return nil
	}
	return m
}

func run(ctx context.Context) error {
	scenario, err := config.GetScenarioConfig()
	if err != nil {
		return err
	}

	backend, err := initStorage()
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	var collector *monitor.Collector
	if config.GetMetricsConfig().Enabled {
		collector, err = monitor.NewCollector(nil)
		if err != nil {
			return err
		}
		srv := startMetricsServer(collector)
		defer srv.Close()
	}

	deps := sim.Dependencies{
		Logger:  Logger,
		Storage: backend,
		Metrics: collector,
	}
	if telemetry := connectInflux(ctx); telemetry != nil {
		defer telemetry.Close()
		deps.Telemetry = telemetry
	}
	if OTelProvider != nil {
		deps.Tracer = OTelProvider.Tracer(AppName)
	}

	session = sim.New(sim.Settings{
		Name:        scenario.Name,
		Trainee:     scenario.Trainee,
		AppVersion:  CurrentVersion,
		FrameMillis: scenario.FrameInterval.Milliseconds(),
		Sensor:      config.GetSensorConfig(),
		Track:       config.GetTrackConfig(),
		Target:      config.GetTargetConfig(),
		HoverRadius: config.GetHoverRadius(),
	}, deps)

	eventDispatcher, err := dispatcher.New(Logger)
	if err != nil {
		return err
	}
	defer eventDispatcher.Close()
	session.RegisterCommands(eventDispatcher, parser.NewParser(Logger))

	monitorService := monitor.NewService(monitor.Dependencies{
		Logger:    Logger,
		StatusDir: filepath.Dir(LogFilePath),
		Snapshot:  session.Snapshot,
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}
	defer monitorService.Stop()

	start := time.Now().UTC()
	if err := session.Start(ctx, start); err != nil {
		return err
	}

	last, runErr := runScenario(ctx, session, eventDispatcher, scenario, start)
	if err := session.End(ctx); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	Logger.Info("Scenario complete",
		"frames", last.Number,
		"marks", len(last.Marks),
		"intensity", last.Echo.Intensity,
	)
	var summary core.DebriefSummary
	if s, ok := backend.(storage.Summarizer); ok {
		var have bool
		if summary, have = s.GetSummary(); have {
			Logger.Info("Debrief",
				"echoFrames", summary.EchoFrames,
				"meanIntensity", summary.MeanIntensity,
				"peakIntensity", summary.PeakIntensity,
				"trackMeters", summary.TrackMeters,
				"marksPlaced", summary.MarksPlaced,
			)
		}
	}
	if e, ok := backend.(storage.Exportable); ok {
		path := e.GetExportedFilePath()
		Logger.Info("Debrief exported", "path", path)
		uploadDebrief(path, core.UploadMetadata{
			SessionName: scenario.Name,
			Trainee:     scenario.Trainee,
			Summary:     summary,
		})
	}
	return nil
}

// uploadDebrief sends the exported file to the review server when enabled.
// Failures are logged; the local export stays in place.
func uploadDebrief(path string, meta core.UploadMetadata) {
	cfg := config.GetAPIConfig()
	if !cfg.Enabled || path == "" {
		return
	}
	meta.Tag = cfg.Tag

	client := api.New(cfg.ServerURL, cfg.APIKey)
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Review server unreachable, debrief not uploaded", "error", err)
		return
	}
	if err := client.Upload(path, meta); err != nil {
		Logger.Error("Failed to upload debrief", "path", path, "error", err)
		return
	}
	Logger.Info("Debrief uploaded", "server", cfg.ServerURL)
}

func setupDB() error {
	db, err := database.OpenPostgres(config.GetStorageConfig().Postgres, DBLog)
	if err != nil {
		return err
	}
	return database.Setup(db, DBLog)
}

func migrateBackups() error {
	paths, err := database.GetBackupDBPaths(filepath.Dir(config.GetStorageConfig().SQLite.DumpPath))
	if err != nil {
		return fmt.Errorf("error getting backup database paths: %w", err)
	}
	db, err := database.OpenPostgres(config.GetStorageConfig().Postgres, DBLog)
	if err != nil {
		return fmt.Errorf("error getting postgres database: %w", err)
	}
	if err := database.Setup(db, DBLog); err != nil {
		return err
	}
	migrated, err := database.MigrateBackups(db, paths, DBLog)
	if err != nil {
		return err
	}
	Logger.Info("Successfully migrated backups, it's recommended to delete these to avoid future data duplication",
		"count", len(migrated),
		"paths", migrated)
	return nil
}

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	if err := setupLogging(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer shutdownLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "run"
	if args := flag.Args(); len(args) > 0 {
		command = strings.ToLower(args[0])
	}

	var err error
	switch command {
	case "run":
		err = run(ctx)
	case "setupdb":
		err = setupDB()
		if err == nil {
			Logger.Info("DB setup complete.")
		}
	case "migratebackups":
		err = migrateBackups()
	default:
		err = fmt.Errorf("unknown command: %s", command)
	}

	if err != nil {
		Logger.Error("Exiting with error", "command", command, "error", err)
		shutdownLogging()
		os.Exit(1)
	}
}
