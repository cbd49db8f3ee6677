package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/app"
	"github.com/fakeyudi/codepulse/internal/config"
	"github.com/fakeyudi/codepulse/internal/host"
	"github.com/fakeyudi/codepulse/internal/notify"
	"github.com/fakeyudi/codepulse/internal/report"
	"github.com/fakeyudi/codepulse/internal/store"
	"github.com/fakeyudi/codepulse/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Track coding time in the configured workspaces until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		roots, err := workspaceRoots(cfg)
		if err != nil {
			return err
		}

		rec, err := telemetry.New(ctx, telemetry.Config{Endpoint: cfg.OTLPEndpoint, Insecure: cfg.OTLPInsecure})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: metrics disabled: %v\n", err)
			rec = nil
		}

		statusOut := cmd.ErrOrStderr()
		status := report.New(statusOut, false)
		if f, ok := statusOut.(*os.File); ok {
			status = report.New(statusOut, report.IsTTY(f))
		}

		watcher := host.NewWatcher(cfg.IgnorePatterns, logger)
		var a *app.App
		opts := app.Options{
			Config:    cfg,
			Logger:    logger,
			Warner:    notify.New(cfg.Notifications(), logger),
			Host:      watcher,
			Exclusive: true,
			OnRefresh: func(agg store.DailyAggregate) {
				if a.Settings().ShowStatusBar {
					fmt.Fprintln(statusOut, status.StatusLine(agg))
				}
			},
		}
		if rec != nil {
			opts.Recorder = rec
		}
		a, err = app.New(ctx, opts)
		if err != nil {
			return err
		}
		watcher.Attach(a.Events())
		if err := watcher.SetWorkspaces(ctx, roots); err != nil {
			_ = a.Shutdown(context.Background())
			return fmt.Errorf("watching workspaces: %w", err)
		}

		a.Start(ctx)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("workspace watcher stopped", "error", err)
			}
		}()
		go func() {
			if err := host.WatchLock(ctx, a.Events(), logger); err != nil {
				logger.Debug("screen lock events unavailable", "error", err)
			}
		}()
		go watchConfig(ctx, a, watcher, logger)

		for _, ws := range watcher.Workspaces() {
			cmd.Printf("Tracking %s (%s)\n", ws.Name, ws.Path)
		}

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr := a.Shutdown(shutdownCtx)
		if err := rec.Close(shutdownCtx); err != nil {
			logger.Warn("flushing metrics", "error", err)
		}
		if shutdownErr != nil {
			return fmt.Errorf("shutting down: %w", shutdownErr)
		}
		cmd.Println("Tracking stopped")
		return nil
	},
}

// workspaceRoots returns the configured workspace folders, or the working
// directory when none are configured.
func workspaceRoots(c config.Config) ([]string, error) {
	if len(c.Workspaces) > 0 {
		return c.Workspaces, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return []string{wd}, nil
}

// watchConfig reloads the global and project config files when they change
// and applies new workspaces and idle timeout to the running tracker.
func watchConfig(ctx context.Context, a *app.App, w *host.Watcher, log *slog.Logger) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug("config reload unavailable", "error", err)
		return
	}
	defer fsw.Close()

	targets := map[string]bool{}
	if global, err := config.GlobalPath(); err == nil {
		targets[global] = true
		if err := fsw.Add(filepath.Dir(global)); err != nil {
			log.Debug("not watching global config", "path", global, "error", err)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		targets[filepath.Join(wd, config.ProjectFile)] = true
		if err := fsw.Add(wd); err != nil {
			log.Debug("not watching project config", "dir", wd, "error", err)
		}
	}

	current := cfg
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Debug("config watcher error", "error", err)
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !targets[ev.Name] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			next, err := config.Load()
			if err != nil {
				log.Warn("ignoring invalid config change", "error", err)
				continue
			}
			applyConfig(ctx, a, w, current, next, log)
			current = next
		}
	}
}

func applyConfig(ctx context.Context, a *app.App, w *host.Watcher, prev, next config.Config, log *slog.Logger) {
	if next.IdleTimeout() != prev.IdleTimeout() {
		if err := a.UpdateIdleTimeout(ctx, next.IdleTimeout()); err != nil {
			log.Warn("applying idle timeout", "error", err)
		} else {
			log.Info("idle timeout changed", "timeout", next.IdleTimeout())
		}
	}
	if next.StatusBar() != prev.StatusBar() {
		if err := a.SetShowStatusBar(ctx, next.StatusBar()); err != nil {
			log.Warn("applying status bar setting", "error", err)
		}
	}
	if slices.Equal(prev.Workspaces, next.Workspaces) {
		return
	}
	roots, err := workspaceRoots(next)
	if err != nil {
		log.Warn("resolving workspaces", "error", err)
		return
	}
	if err := w.SetWorkspaces(ctx, roots); err != nil {
		log.Warn("applying workspaces", "error", err)
	}
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
