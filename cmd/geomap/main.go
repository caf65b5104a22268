package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/spf13/pflag"

	"geomap/internal/config"
	"geomap/internal/logging"
	"geomap/internal/mapview"
	"geomap/internal/metrics"
	"geomap/internal/telemetry"
	"geomap/internal/tui"
	"geomap/internal/viewsync"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "geomap: %v\n", err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup so main can exit with a status afterwards.
func run(args []string) error {
	fs := pflag.NewFlagSet("geomap", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: geomap [flags] [overlay-file]\n")
		fs.PrintDefaults()
	}
	config.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logging.Setup(cfg.Log.Level, cfg.Log.Format, logFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Metrics
	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			slog.Error("metrics server", "error", err)
		}
	}()

	client := viewsync.NewClient(cfg.Service.BaseURL, cfg.Service.Timeout)
	mp := mapview.New(orb.Point{cfg.Map.CenterLon, cfg.Map.CenterLat}, cfg.Map.Zoom, cfg.Map.SettleDelay)
	vs := viewsync.New(mp, client, viewsync.WithTimeout(cfg.Service.Timeout))

	opts := tui.Options{Map: mp, Sync: vs, Source: cfg.Service.BaseURL}
	if fs.NArg() > 0 {
		opts.Overlay = fs.Arg(0)
	}
	m, err := tui.New(opts)
	if err != nil {
		slog.Error("start", "error", err)
		return err
	}

	slog.Info("geomap starting", "service", cfg.Service.BaseURL, "zoom", cfg.Map.Zoom)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		slog.Error("program exited", "error", err)
		return err
	}
	return nil
}
