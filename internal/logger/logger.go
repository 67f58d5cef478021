package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var log *slog.Logger

func Init() {
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// SetOutput swaps the destination, used by tests to capture output.
func SetOutput(w io.Writer) {
	log = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func Info(msg string, args ...interface{}) {
	log.Info(msg, args...)
}

func Infof(format string, v ...interface{}) {
	log.Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...interface{}) {
	log.Error(msg, args...)
}

func Errorf(format string, v ...interface{}) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...interface{}) {
	log.Debug(msg, args...)
}

func Debugf(format string, v ...interface{}) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatal(msg string) {
	log.Error(msg)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
