package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/config"
	"github.com/1broseidon/spanwm/internal/logging"
	"github.com/1broseidon/spanwm/internal/wm"
)

// SettingsApplier receives reloaded runtime settings.
type SettingsApplier interface {
	ApplySettings(ctx context.Context, s wm.Settings) error
}

// Settings extracts the runtime-changeable part of cfg.
func Settings(cfg *config.Config) wm.Settings {
	return wm.Settings{
		Wallpaper:      cfg.WallpaperPath(),
		TouchEnabled:   cfg.Touch.Enabled,
		TouchReference: cfg.Touch.ReferenceOutput,
		MaxMonitors:    cfg.Limits.MaxMonitors,
	}
}

// Reloader re-reads configuration and pushes the parts that may change at
// runtime: log level, wallpaper, touch options and the monitor limit.
type Reloader struct {
	// Path is the config file; empty means the default location.
	Path    string
	Logger  *logging.Logger
	Manager SettingsApplier
}

func (r *Reloader) load() (*config.Config, error) {
	if r.Path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(r.Path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func (r *Reloader) Reload(ctx context.Context) error {
	cfg, err := r.load()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if err := r.Manager.ApplySettings(ctx, Settings(cfg)); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	if r.Logger != nil {
		r.Logger.SetLevel(level)
	}
	return nil
}

// HangupReloader reloads configuration on SIGHUP.
type HangupReloader struct {
	Reloader *Reloader
	Log      zerolog.Logger
}

func (h *HangupReloader) Serve(ctx context.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sig:
			if err := h.Reloader.Reload(ctx); err != nil {
				h.Log.Error().Err(err).Msg("reload on SIGHUP failed")
				continue
			}
			h.Log.Info().Msg("config reloaded on SIGHUP")
		}
	}
}

func (h *HangupReloader) String() string { return "sighup-reloader" }
