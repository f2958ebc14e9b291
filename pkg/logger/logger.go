package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env        string // dev, prod or test
	Level      string // explicit level override, empty means env default
	AddSource  bool
	TimeFormat string
	Output     io.Writer
}

// Logger is a wrapper around slog.Logger with additional methods
type Logger struct {
	*slog.Logger
}

func New(config Config) (*Logger, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = "15:04:05"
	}

	handler, err := createHandler(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler: %w", err)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{Logger: logger}, nil
}

func createHandler(config Config) (slog.Handler, error) {
	level := parseLogLevel(config.Env, config.Level)

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	switch strings.ToLower(config.Env) {
	case "prod":
		return slog.NewJSONHandler(config.Output, handlerOpts), nil

	case "dev":
		textOpts := *handlerOpts
		textOpts.ReplaceAttr = createTextReplacer(config.TimeFormat)
		return slog.NewTextHandler(config.Output, &textOpts), nil

	case "test":
		return slog.NewTextHandler(config.Output, &slog.HandlerOptions{
			Level: slog.LevelError,
		}), nil

	default:
		return nil, fmt.Errorf("unknown environment: %s (use 'dev', 'prod', or 'test')", config.Env)
	}
}

func parseLogLevel(env, explicitLevel string) slog.Level {
	if explicitLevel != "" {
		switch strings.ToLower(explicitLevel) {
		case "debug":
			return slog.LevelDebug
		case "info":
			return slog.LevelInfo
		case "warn":
			return slog.LevelWarn
		case "error":
			return slog.LevelError
		}
	}

	switch strings.ToLower(env) {
	case "dev":
		return slog.LevelDebug
	case "prod":
		return slog.LevelInfo
	case "test":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createTextReplacer shortens the timestamp for dev logs
func createTextReplacer(timeFormat string) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			if t, ok := a.Value.Any().(time.Time); ok {
				a.Value = slog.StringValue(t.Format(timeFormat))
			}
		}
		return a
	}
}
