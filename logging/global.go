// Package logging sets up structured logging for the service: text on the
// console and JSON in weekly rotating files.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/giygas/drugchecker-api/config"
)

type LoggingService struct {
	Logger *slog.Logger
	writer *RotatingWriter
	cancel context.CancelFunc
	done   chan struct{}
}

var DefaultLoggingService *LoggingService

// Options configures InitLoggerWithOptions
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, info by default
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console level for an environment. Tests
// stay quiet unless verbose; LOG_LEVEL overrides the other defaults.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if level != "" {
		return parseLogLevel(level)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the JSON log files
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger initializes the global logger with default options. An empty
// directory logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{Dir: logDir, Env: config.EnvDevelopment, RetentionWeeks: 4})
}

// InitLoggerWithOptions initializes the global logger and makes it the slog default
func InitLoggerWithOptions(opts Options) {
	if DefaultLoggingService != nil {
		DefaultLoggingService.Close()
	}

	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	service := &LoggingService{}
	handlers := []slog.Handler{console}

	if opts.Dir != "" {
		writer, err := NewRotatingWriter(opts.Dir, max(opts.RetentionWeeks, 1), opts.MaxFileSize)
		if err != nil {
			slog.New(console).Error("Failed to initialize rotating logger, logging to console only", "error", err)
		} else {
			service.writer = writer
			handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{
				Level: GetFileLogLevel(),
			}))
			service.startCleanup()
		}
	}

	service.Logger = slog.New(&multiHandler{handlers: handlers})
	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

func (s *LoggingService) startCleanup() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.writer.Cleanup(); err != nil {
					slog.Warn("Failed to cleanup old logs", "error", err)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and closes the log file
func (s *LoggingService) Close() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	if s.writer != nil {
		_ = s.writer.Close()
	}
}

// Close closes the global logging service
func Close() {
	DefaultLoggingService.Close()
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return DefaultLoggingService.Logger
}

// Logger returns the global logger, or a console fallback before init
func Logger() *slog.Logger {
	return logger()
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
