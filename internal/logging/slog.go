package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName tags records shipped to OTel and Graylog.
const ServiceName = "sonar-trainer"

// swapped in tests
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel and Graylog sinks.
type SlogManager struct {
	logger *slog.Logger

	logProvider *sdklog.LoggerProvider
	graylog     io.WriteCloser
}

// SetupOption adds an optional sink or decorator.
type SetupOption func(*setupConfig)

type setupConfig struct {
	graylogAddr string
	graylog     io.WriteCloser
	context     ContextProvider
}

// WithGraylog ships JSON records to a GELF UDP endpoint.
func WithGraylog(address string) SetupOption {
	return func(c *setupConfig) { c.graylogAddr = address }
}

// WithGraylogWriter ships JSON records to w instead of dialing.
func WithGraylogWriter(w io.WriteCloser) SetupOption {
	return func(c *setupConfig) { c.graylog = w }
}

// WithContext injects provider attributes into every record.
func WithContext(provider ContextProvider) SetupOption {
	return func(c *setupConfig) { c.context = provider }
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes logging. Records go to file when one is given and to
// stdout otherwise. A nil provider disables OTel logging. A Graylog dial
// failure is logged and the sink skipped.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...SetupOption) {
	cfg := &setupConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	lvl := parseLevel(level)
	m.logProvider = provider
	if m.graylog != nil {
		m.graylog.Close()
		m.graylog = nil
	}

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)))
	}

	var graylogErr error
	switch {
	case cfg.graylog != nil:
		m.graylog = cfg.graylog
	case cfg.graylogAddr != "":
		w, err := gelf.NewWriter(cfg.graylogAddr)
		if err != nil {
			graylogErr = fmt.Errorf("dialing graylog %s: %w", cfg.graylogAddr, err)
		} else {
			m.graylog = w
		}
	}
	if m.graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(m.graylog, handlerOpts))
	}

	var root slog.Handler = NewMultiHandler(handlers...)
	if cfg.context != nil {
		root = NewContextHandler(root, cfg.context)
	}

	m.logger = slog.New(root)
	m.logger.Info("Logging initialized", "level", level)
	if graylogErr != nil {
		m.logger.Warn("Graylog sink disabled", "error", graylogErr)
	}
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close releases the Graylog connection.
func (m *SlogManager) Close() error {
	if m.graylog == nil {
		return nil
	}
	err := m.graylog.Close()
	m.graylog = nil
	return err
}
