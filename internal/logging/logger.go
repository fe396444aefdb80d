package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	output = io.Writer(os.Stderr)
	level  = new(slog.LevelVar)
)

type Logger struct {
	*slog.Logger
}

// Configure sets where loggers built afterwards write to and the minimum level they log.
func Configure(w io.Writer, levelName string) error {
	parsed, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	output = w
	level.Set(parsed)
	return nil
}

// Output is the writer loggers currently write to.
func Output() io.Writer {
	return output
}

func ParseLevel(levelName string) (slog.Level, error) {
	switch strings.ToLower(levelName) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", levelName)
	}
}

func BuildLogger() *Logger {
	logger := Logger{Logger: slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))}
	return &logger
}

func BuildLoggerFromCtx(ctx *gin.Context) *Logger {
	logger := BuildLogger()
	return &Logger{Logger: logger.With("path", ctx.Request.URL.Path)}
}

func (l *Logger) WithError(err error) *Logger {
	modifiedLogger := Logger{Logger: l.With("error", err.Error())}
	return &modifiedLogger
}

func (l *Logger) WithConversion(id string) *Logger {
	return &Logger{Logger: l.With("conversion_id", id)}
}
