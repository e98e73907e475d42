package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/config"
	"github.com/five82/peerdeck/internal/logging"
	"github.com/five82/peerdeck/internal/metrics"
	"github.com/five82/peerdeck/internal/prefs"
	"github.com/five82/peerdeck/internal/state"
	"github.com/five82/peerdeck/internal/ui"
)

// Options configure the peerdeck application.
type Options struct {
	ConfigPath   string
	PrefsPath    string        // empty uses default ~/.config/peerdeck/prefs.toml
	PollInterval time.Duration // zero uses the config value
	Verbose      bool
	// Mode selects the log sink; the TUI logs to a file, the CLI to stderr.
	Mode logging.Mode
	// LogOut overrides stderr in CLI mode.
	LogOut io.Writer
}

// Env is a loaded configuration plus a live session against the backend.
type Env struct {
	Config  config.Config
	Prefs   prefs.Prefs
	Logger  zerolog.Logger
	Client  *backend.Client
	Session *Session

	logCloser io.Closer
}

// Open loads config and prefs, builds the logger and backend client, and
// wires a Session. It does not start any goroutines.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
	if opts.Verbose {
		cfg.LogLevel = zerolog.DebugLevel
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	mode := opts.Mode
	if mode == "" {
		mode = logging.ModeCLI
	}
	logger, closer, err := logging.New(logging.Options{Mode: mode, Level: cfg.LogLevel, File: cfg.LogFile, Out: opts.LogOut})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := backend.NewClient(cfg.BackendURL, backend.ClientOptions{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	session := NewSession(client, SessionOptions{
		Store:  &state.Store{},
		Locale: cfg.Locale,
		Logger: logger,
	})

	return &Env{
		Config:    cfg,
		Prefs:     userPrefs,
		Logger:    logger,
		Client:    client,
		Session:   session,
		logCloser: closer,
	}, nil
}

// Close releases the session and flushes the log sink.
func (e *Env) Close() {
	e.Session.Close()
	_ = e.logCloser.Close()
}

// Run boots the peerdeck TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	opts.Mode = logging.ModeTUI
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	env.Logger.Info().
		Str("backend", env.Config.BackendURL).
		Dur("poll", env.Config.PollInterval).
		Msg("starting peerdeck")

	go func() {
		if err := metrics.Serve(ctx, env.Config.MetricsAddr); err != nil {
			env.Logger.Error().Err(err).Str("addr", env.Config.MetricsAddr).Msg("metrics listener failed")
		}
	}()

	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		env.Client.Listen(ctx)
	}()

	session := env.Session
	stop := session.Start(ctx, env.Config.PollInterval)

	uiErr := ui.Run(ui.Options{
		Context:        ctx,
		Conn:           session.Conn,
		Seed:           session.Seed,
		Files:          session.Files,
		Store:          session.Store,
		Collator:       session.Collator,
		RequestRefresh: session.RequestRefresh,
		PollTick:       env.Config.PollInterval,
		Prefs:          env.Prefs,
		PrefsPath:      opts.PrefsPath,
		Logger:         env.Logger,
	})

	cancel()
	stop()
	<-listenDone
	env.Logger.Info().Msg("peerdeck stopped")
	return uiErr
}
