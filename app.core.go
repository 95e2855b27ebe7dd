package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger   *zap.Logger
	config   *Config
	server   *http.Server
	storage  BookStorage
	cleanups []func()
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewClock(config.IsProduction)
	logger, cleanups, err := setupAppLogger(config, clock)
	if err != nil {
		return nil, err
	}

	ids := NewIDsHandler()
	storage, err := OpenBookStorage(context.Background(), logger, config, ids)
	if err != nil {
		(&App{cleanups: cleanups}).Clean()
		return nil, fmt.Errorf("failed to setup book storage: %s", err)
	}

	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		ids,
		NewBookValidator(),
		NewBookService(logger, storage),
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	return &App{
		logger:   logger,
		config:   config,
		server:   newHTTPServer(config, logger, router),
		storage:  storage,
		cleanups: cleanups,
	}, nil
}

// setupAppLogger builds the App logger. The log file is optional and without
// it logs only go to the standard output. The returned cleanups flush the logs
// then close the file.
func setupAppLogger(config *Config, clock Clocker) (*zap.Logger, []func(), error) {
	if config.LogFile == "" {
		logger, flusher := SetupLogging(config, os.Stdout, nil, clock)
		return logger, []func(){func() { _ = flusher() }}, nil
	}

	logFile, err := OpenLogFile(config.LogFile)
	if err != nil {
		return nil, nil, err
	}
	logger, flusher := SetupLogging(config, os.Stdout, logFile, clock)
	return logger, []func(){
		func() { _ = flusher() },
		func() {
			if cerr := logFile.Close(); cerr != nil {
				fmt.Println("error during closing of log file: ", cerr)
			}
		},
	}, nil
}

// newHTTPServer builds the api server definition. Only connection-level
// timeouts apply, requests processing itself is not time bounded.
func newHTTPServer(config *Config, logger *zap.Logger, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           net.JoinHostPort(config.Server.Host, config.Server.Port),
		Handler:        handler,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		IdleTimeout:    config.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
		ErrorLog:       zap.NewStdLog(logger),
	}
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.build", app.config.BuildTime),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// We proceed with a brutal shutdown if the graceful did not complete successfully.
// It explicitly returns `nil` so the errorgroup only reports the `Serve` result.
// The storage is closed once no more request can reach it.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		if err = app.storage.Close(); err != nil {
			app.logger.Error("failed to close book storage", zap.Error(err))
		}
		return nil
	}
}
