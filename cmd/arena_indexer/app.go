package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dfarena/indexer/internal/chain"
	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/engine"
	"github.com/dfarena/indexer/internal/influx"
	"github.com/dfarena/indexer/internal/logging"
	intOtel "github.com/dfarena/indexer/internal/otel"
	"github.com/dfarena/indexer/internal/storage"
)

// app holds the services shared by every command.
type app struct {
	session      string
	sessionStart time.Time
	logsDir      string

	logFile     *os.File
	otel        *intOtel.Provider
	slogManager *logging.SlogManager
	log         zerolog.Logger

	backend storage.Backend
	reader  chain.Reader
	influx  *influx.Manager
	engine  *engine.Engine
}

// loadConfig reads .env, then the JSON config, then applies flag overrides.
// A missing config file leaves the defaults in place.
func loadConfig(opts *RootOptions) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if err := config.Load(opts.ConfigDir); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	if opts.Storage != "" {
		viper.Set("storage.type", opts.Storage)
	}
	if opts.LogLevel != "" {
		viper.Set("logLevel", opts.LogLevel)
	}
	return nil
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// newApp sets up logging, telemetry, storage, the chain reader and the
// engine. A read-only app opens persisted data without writing back.
// Callers must call close.
func newApp(ctx context.Context, opts *RootOptions, readOnly bool) (*app, error) {
	if err := loadConfig(opts); err != nil {
		return nil, err
	}

	a := &app{
		session:      uuid.NewString(),
		sessionStart: time.Now(),
		logsDir:      config.GetString("logsDir"),
		slogManager:  logging.NewSlogManager(),
	}

	if err := a.setupLogging(); err != nil {
		return nil, err
	}

	if err := a.setupStorage(readOnly); err != nil {
		a.close(ctx)
		return nil, err
	}

	reader, err := newChainReader(ctx, config.GetChainConfig(), a.log)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.reader = reader

	engineOpts := []engine.Option{}
	if cfg := config.GetInfluxConfig(); cfg.Enabled {
		a.influx = influx.NewManager(cfg, a.log, filepath.Join(a.logsDir, "influx_backup.log.gz"))
		if err := a.influx.Connect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("InfluxDB unavailable, settlement points disabled")
			a.influx = nil
		} else {
			engineOpts = append(engineOpts, engine.WithObserver(a.influx))
		}
	}

	eng, err := engine.New(a.backend, a.reader, logging.NewDispatcherLogger(a.log), engineOpts...)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	a.engine = eng
	return a, nil
}

func (a *app) setupLogging() error {
	level := config.GetString("logLevel")

	var out io.Writer = os.Stderr
	if a.logsDir != "" {
		if err := os.MkdirAll(a.logsDir, 0755); err != nil {
			return fmt.Errorf("creating logs directory: %w", err)
		}
		path := logging.LogFilePath(a.logsDir, AppName, a.sessionStart)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		out = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, f)
	}

	var fileOut io.Writer
	if a.logFile != nil {
		fileOut = a.logFile
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    fileOut,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("creating otel provider: %w", err)
	}
	a.otel = provider

	a.slogManager.Setup(fileOut, level, provider.LoggerProvider(), logging.SessionProvider(a.session))

	a.log = zerolog.New(out).Level(parseLevel(level)).With().
		Timestamp().
		Str("session", a.session).
		Logger()
	a.log.Info().Str("version", CurrentVersion).Bool("otel", provider.Enabled()).Msg("Starting up")
	return nil
}

func (a *app) setupStorage(readOnly bool) error {
	cfg := config.GetStorageConfig()
	create := createStorageBackend
	if readOnly {
		create = openStorageBackend
	}
	backend, err := create(cfg, a.log)
	if err != nil {
		a.log.Error().Err(err).Str("type", cfg.Type).Msg("Failed to create storage backend")
		return err
	}
	if err := backend.Init(); err != nil {
		a.log.Error().Err(err).Str("type", cfg.Type).Msg("Failed to initialize storage backend")
		return err
	}
	a.backend = backend
	return nil
}

func newChainReader(ctx context.Context, cfg config.ChainConfig, log zerolog.Logger) (chain.Reader, error) {
	switch {
	case cfg.RPCURL != "":
		r, err := chain.Dial(ctx, cfg.RPCURL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", cfg.RPCURL, err)
		}
		log.Info().Str("rpc", cfg.RPCURL).Msg("Reading constants from chain")
		return r, nil
	case cfg.ConstantsFile != "":
		r, err := chain.LoadStatic(cfg.ConstantsFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.ConstantsFile).Msg("Reading constants from file")
		return r, nil
	default:
		log.Warn().Msg("No chain source configured, configs will stay unresolved")
		return chain.NewStatic(), nil
	}
}

// close releases everything newApp opened, in reverse order.
func (a *app) close(ctx context.Context) {
	if r, ok := a.reader.(*chain.EthReader); ok {
		r.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing storage backend")
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing InfluxDB manager")
		}
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			a.log.Error().Err(err).Msg("Error shutting down otel")
		}
	}
	if err := a.slogManager.Flush(ctx); err != nil {
		a.log.Error().Err(err).Msg("Error flushing logs")
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
