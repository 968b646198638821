package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/pulse-cli/internal/adapters/git"
	"github.com/xvierd/pulse-cli/internal/adapters/notification"
	"github.com/xvierd/pulse-cli/internal/adapters/spotify"
	"github.com/xvierd/pulse-cli/internal/adapters/storage"
	"github.com/xvierd/pulse-cli/internal/config"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/logging"
	"github.com/xvierd/pulse-cli/internal/ports"
	"github.com/xvierd/pulse-cli/internal/services"
	"github.com/xvierd/pulse-cli/internal/telemetry"
)

// errSpotifyNotConfigured is returned by music and auth commands when no
// client id is set.
var errSpotifyNotConfigured = errors.New("spotify is not configured: set spotify.client_id in the config file")

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config    *config.Config
	log       *logrus.Logger
	logCloser io.Closer
	storage   ports.Storage
	notifier  *notification.Notifier
	auth      *services.AuthManager
	player    *spotify.Client
	fader     *services.FadeController
	session   *services.SessionService
	tasks     *services.TaskService
	poller    *services.NowPlayingPoller
	state     *services.StateService

	cancelRun context.CancelFunc
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices(ctx context.Context) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	app.config = cfg

	if err := telemetry.Init(Version, cfg.Telemetry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: crash reporting disabled: %v\n", err)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Path:    config.GetLogPath(cfg),
		Verbose: verbose,
		Hooks:   []logrus.Hook{telemetry.NewHook()},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	app.log, app.logCloser = logger, closer
	if cfgErr != nil {
		logger.WithError(cfgErr).Warn("using default configuration")
	}

	if dbPath == "" {
		dbPath = config.GetDBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	app.storage, err = storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.notifier = notification.New(cfg.Notifications, logger.WithField("component", "notify"))

	app.auth = services.NewAuthManager(app.storage.Tokens(), services.AuthConfig{
		ClientID:    cfg.Spotify.ClientID,
		RedirectURL: cfg.Spotify.RedirectURL,
	}, logger.WithField("component", "auth"))
	app.player = spotify.New(app.auth, spotify.WithLogger(logger.WithField("component", "spotify")))
	app.fader = services.NewFadeController(app.player, logger.WithField("component", "fade"))
	app.poller = services.NewNowPlayingPoller(app.player, time.Duration(cfg.Spotify.PollInterval), logger.WithField("component", "poller"))

	durations, err := cfg.Durations()
	if err != nil {
		logger.WithError(err).Warn("invalid timer durations, using defaults")
		durations = domain.DefaultDurations()
	}
	app.session = services.NewSessionService(durations, services.SessionConfig{
		FadeOut:  time.Duration(cfg.Spotify.FadeOut),
		FadeIn:   time.Duration(cfg.Spotify.FadeIn),
		DeviceID: cfg.Spotify.DeviceID,
	}, nil, app.notifier, logger.WithField("component", "session"))

	app.tasks = services.NewTaskService(app.storage, app.notifier, git.NewDetector())
	app.state = services.NewStateService(app.tasks, app.session)
	app.state.SetPlayback(app.auth, app.player, app.fader, app.poller)

	app.auth.OnDisconnect(func() {
		app.session.SetFader(nil)
		app.poller.Stop()
		app.fader.Forget()
	})

	if spotifyConfigured() {
		if err := app.auth.Load(ctx); err != nil {
			logger.WithError(err).Warn("failed to restore spotify session")
		}
	}
	if app.auth.Connected() {
		app.session.SetFader(app.fader)
	}

	return nil
}

// spotifyConfigured reports whether playback sync is enabled with a client id.
func spotifyConfigured() bool {
	return app.config.Spotify.Enabled && app.config.Spotify.ClientID != ""
}

// requireSpotify returns an error unless an account is connected.
func requireSpotify() error {
	if !spotifyConfigured() {
		return errSpotifyNotConfigured
	}
	if !app.auth.Connected() {
		return fmt.Errorf("%w: run `pulse auth login`", domain.ErrNotConnected)
	}
	return nil
}

// startSession runs the session clock and, when connected, the now-playing
// poller until stopSession is called or ctx is done.
func (a *appDeps) startSession(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancelRun = cancel

	a.session.SetContext(runCtx)
	go a.session.Run(runCtx)

	if a.auth.Connected() {
		a.poller.Start(runCtx)
		if err := a.fader.CaptureUserVolume(runCtx); err != nil {
			a.log.WithError(err).Debug("could not read the device volume")
		}
	}
}

// stopSession stops the clock and waits for in-flight playback effects.
func (a *appDeps) stopSession() {
	if a.cancelRun != nil {
		a.cancelRun()
		a.cancelRun = nil
	}
	a.poller.Stop()
	a.session.Wait()
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var err error
	if app.storage != nil {
		err = app.storage.Close()
		app.storage = nil
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
	return err
}
