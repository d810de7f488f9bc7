package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type Loggers struct {
	DebugLogger *slog.Logger
	InfoLogger  *slog.Logger
	ErrorLogger *slog.Logger
}

func SetupLogger(level string) (*Loggers, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %q", level)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	log := slog.New(handler)

	return &Loggers{
		DebugLogger: log,
		InfoLogger:  log,
		ErrorLogger: log,
	}, nil
}
