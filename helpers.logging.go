package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"
)

// SyncWrite implements zap.SyncWriter. This is a small hack to avoid usual
// `Handle is invalid` error when calling Sync() on logger using os.stdout.
type SyncWrite struct {
	out io.Writer
}

func (sw *SyncWrite) Sync() error {
	return nil
}

func (sw *SyncWrite) Write(p []byte) (n int, err error) {
	return sw.out.Write(p)
}

// OpenLogFile ensures the logs folder exists and opens the log file in append mode.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging file: %w", err)
	}
	return f, nil
}

// SetupLogging is a helper function that initializes the logging module.
// In production logs are JSON encoded to the standard output and the log file
// if any. In development the console receives human readable logs while the
// log file keeps the JSON ones. It only adds stacktrace to fatal level logs.
// All logs come with commit & tag value.
func SetupLogging(config *Config, stdout io.Writer, logFile zapcore.WriteSyncer, clock Clocker) (*zap.Logger, func() error) {
	zapConfig := zap.NewProductionEncoderConfig()
	if !config.IsProduction {
		zapConfig = zap.NewDevelopmentEncoderConfig()
	}
	zapConfig.TimeKey = "ts"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "lvl"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "skt"

	jsonEncoder := zapcore.NewJSONEncoder(zapConfig)
	var cores []zapcore.Core
	if config.IsProduction {
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.Lock(&SyncWrite{stdout}), config.LogLevel))
	} else {
		consoleEncoder := zapcore.NewConsoleEncoder(zapConfig)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(&SyncWrite{stdout}), config.LogLevel))
	}
	if logFile != nil {
		cores = append(cores, zapcore.NewCore(jsonEncoder, logFile, config.LogLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(asZapClock(clock)))
	logger = logger.With(zap.String("app.commit", config.GitCommit), zap.String("app.tag", config.GitTag))

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}

	return logger, flusher
}

// Clocker provides the current time to handlers and log entries.
type Clocker interface {
	Now() time.Time
}

// zoneClock reads the wall clock in a fixed location. It also satisfies
// zapcore.Clock so the logger can use it as is.
type zoneClock struct {
	loc *time.Location
}

// NewClock returns the App clock. Production runs on UTC while other
// environments keep the host local time.
func NewClock(isProd bool) Clocker {
	loc := time.Local
	if isProd {
		loc = time.UTC
	}
	return zoneClock{loc: loc}
}

func (c zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c zoneClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// clockAdapter lets zap stamp entries with a Clocker lacking tickers.
type clockAdapter struct {
	Clocker
}

func (c clockAdapter) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// asZapClock returns the clock zap uses to stamp entries.
func asZapClock(clock Clocker) zapcore.Clock {
	if zc, ok := clock.(zapcore.Clock); ok {
		return zc
	}
	return clockAdapter{clock}
}

// GetLoggerFromContext retrieves previously set logger from the context and returns it.
// If the logger can't be retrieved it will return the initial logger of the App.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if value, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok {
		return value
	}
	return api.logger
}
