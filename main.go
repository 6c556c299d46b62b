package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/llehouerou/undertow/internal/app"
	"github.com/llehouerou/undertow/internal/catalog"
	"github.com/llehouerou/undertow/internal/config"
	"github.com/llehouerou/undertow/internal/icons"
	"github.com/llehouerou/undertow/internal/keymap"
	"github.com/llehouerou/undertow/internal/lastfm"
	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/mpris"
	"github.com/llehouerou/undertow/internal/notify"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/radio"
	"github.com/llehouerou/undertow/internal/resilience"
	"github.com/llehouerou/undertow/internal/source"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/stderr"
)

var errNoCatalog = errors.New("catalog.base_url is not configured")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the player. Arguments are catalog track IDs queued in order;
// without any, playback starts as a shuffle over the trending pool.
func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasCatalogConfig() {
		return errNoCatalog
	}
	bindings, err := keymap.WithOverrides(keymap.Default, cfg.Keys)
	if err != nil {
		return fmt.Errorf("key bindings: %w", err)
	}
	icons.Init(cfg.IconStyle())

	logCfg := cfg.GetLogConfig()
	logFile, err := logging.OpenFile(logCfg.File)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := logging.New(logFile, logCfg.Level)

	// Before the speaker opens ALSA.
	if err := stderr.Start(); err != nil {
		logger.Warn("stderr capture unavailable", "err", err)
	}
	defer stderr.Stop()

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer stateMgr.Close()
	settings, err := stateMgr.GetSettings()
	if err != nil {
		logger.Warn("reading saved settings failed", "err", err)
		settings = state.DefaultSettings
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go stderr.Forward(ctx, logging.With(logger, "stderr"))

	catCfg := cfg.GetCatalogConfig()
	cat := catalog.New(catCfg.BaseURL,
		catalog.WithToken(catCfg.Token),
		catalog.WithRateLimit(catCfg.RateLimit),
		catalog.WithTimeout(catCfg.Timeout()),
	)

	out := player.NewSpeakerOutput(player.DefaultSampleRate)
	keep := player.NewBeepKeepAlive(out)
	adapterOpts := []player.AdapterOption{
		player.WithKeepAlive(keep),
		player.WithLogger(logging.With(logger, "player")),
	}
	mpvCfg := cfg.GetMPVConfig()
	mpv := player.NewMPVDriver(mpvCfg.Path, mpvCfg.Socket, player.WithMPVLogger(logging.With(logger, "mpv")))
	if mpv.Available() {
		adapterOpts = append(adapterOpts, player.WithEmbedDriver(mpv))
	} else {
		logger.Info("mpv not found, embedded sources will fail", "path", mpvCfg.Path)
	}
	backend := player.NewAdapter(cat, player.NewBeepDriver(out, http.DefaultClient), adapterOpts...)

	guard := resilience.New(keep, backend,
		resilience.WithLogger(logging.With(logger, "resilience")),
		resilience.WithInterval(cfg.GetResilienceConfig().WatchdogInterval()),
	)

	contCfg := cfg.GetContinuationConfig()
	cont := radio.New(cat, contCfg,
		radio.WithCache(radio.NewCache(stateMgr.DB(), contCfg.CacheTTLDays)),
		radio.WithLogger(logging.With(logger, "radio")),
	)
	defer cont.Wait()

	telemetry := source.MultiTelemetry{cat}
	if cfg.HasLastfmConfig() {
		lf := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
		lf.SetSessionKey(cfg.Lastfm.SessionKey)
		telemetry = append(telemetry, lf)
	}

	queue := playlist.NewQueue()
	queue.SetRepeatMode(playlist.RepeatMode(settings.RepeatMode))
	queue.SetShuffle(settings.Shuffle)

	pbCfg := cfg.GetPlaybackConfig()
	volume := settings.Volume
	if cfg.Playback.Volume != nil {
		volume = pbCfg.InitialVolume()
	}
	svc := playback.New(backend, queue,
		playback.WithContinuer(cont),
		playback.WithTelemetry(telemetry),
		playback.WithResyncer(guard),
		playback.WithLogger(logging.With(logger, "playback")),
		playback.WithRetryPolicy(playback.RetryPolicy{
			Cap:   pbCfg.RetryCap,
			Scope: playback.ParseRetryScope(pbCfg.RetryScope),
			Delay: pbCfg.RetryDelay(),
		}),
		playback.WithVolume(volume),
	)
	defer svc.Close()
	guard.Attach(svc)

	go guard.Run(ctx)
	if err := resilience.WatchSleep(ctx, guard); err != nil {
		logger.Warn("sleep notifications unavailable", "err", err)
	}

	if mp, err := mpris.New(svc, logging.With(logger, "mpris")); err != nil {
		logger.Warn("mpris unavailable", "err", err)
	} else {
		defer mp.Close()
	}

	if cfg.Notify.Enabled {
		n, err := notify.New()
		if err != nil {
			logger.Warn("notifications unavailable", "err", err)
		} else {
			go notify.Watch(ctx, svc.Subscribe(), n, logging.With(logger, "notify"))
		}
	}

	pool, err := startQueue(ctx, svc, cat, args, contCfg.TrendingLimit, logger)
	if err != nil {
		logger.Warn("initial queue not started", "err", err)
	}

	model := app.New(svc,
		app.WithLifecycle(guard),
		app.WithSettingsStore(stateMgr),
		app.WithShufflePool(pool),
		app.WithKeyBindings(bindings),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// startQueue queues the given track IDs, or shuffles the trending pool. It
// returns the trending pool for the shuffle key.
func startQueue(
	ctx context.Context,
	svc playback.Service,
	cat *catalog.Client,
	ids []string,
	limit int,
	logger *log.Logger,
) ([]playlist.Track, error) {
	pool, poolErr := cat.Trending(ctx, limit)
	if poolErr != nil {
		logger.Debug("trending unavailable at startup", "err", poolErr)
	}

	if len(ids) > 0 {
		tracks := make([]playlist.Track, len(ids))
		for i, id := range ids {
			tracks[i] = playlist.Track{ID: id}
		}
		return pool, svc.ReplaceQueue(tracks, 0)
	}
	if poolErr != nil {
		return nil, poolErr
	}
	return pool, svc.PlayAsShuffle(pool)
}
