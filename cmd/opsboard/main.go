// opsboard is an IT operations dashboard over a fixed seed of service desk
// tickets, vulnerabilities, endpoints and integrations.
//
// It runs in one of three modes:
//
//  1. TERMINAL UI (default):
//     opsboard tui
//
//  2. HTTP SERVER (HTML page and JSON API):
//     opsboard serve --addr :8080
//
//  3. SNAPSHOT (one-shot JSON export of the initial view):
//     opsboard snapshot --output board.json.zst
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/exploopio/opsboard/pkg/audit"
	"github.com/exploopio/opsboard/pkg/catalog"
	"github.com/exploopio/opsboard/pkg/clock"
	"github.com/exploopio/opsboard/pkg/compress"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/health"
	"github.com/exploopio/opsboard/pkg/logging"
	"github.com/exploopio/opsboard/pkg/metrics"
	"github.com/exploopio/opsboard/pkg/server"
	"github.com/exploopio/opsboard/pkg/tui"
)

const (
	appName    = "opsboard"
	appVersion = "1.0.0"
)

// Modes.
const (
	modeTUI      = "tui"
	modeServe    = "serve"
	modeSnapshot = "snapshot"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	flagSet := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	opts.addFlags(flagSet)
	flagSet.Usage = func() { printHelp(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if opts.version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		return nil
	}

	mode := modeTUI
	switch rest := flagSet.Args(); len(rest) {
	case 0:
	case 1:
		mode = rest[0]
	default:
		return errors.Errorf(errors.KindInvalidInput, "main", "unexpected argument: %s", rest[1])
	}
	switch mode {
	case modeTUI, modeServe, modeSnapshot:
	default:
		return errors.Errorf(errors.KindInvalidInput, "main", "unknown command %q (want tui, serve or snapshot)", mode)
	}

	cfg, err := loadConfig(&opts, flagSet, os.Getenv)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, mode)
	if err != nil {
		return err
	}
	defer app.close()

	switch mode {
	case modeServe:
		return app.serve(ctx)
	case modeSnapshot:
		return app.snapshot(os.Stdout)
	default:
		return app.runTUI(ctx)
	}
}

// app holds the wired components shared by every mode.
type app struct {
	cfg     Config
	mode    string
	clock   clock.Clock
	loc     *time.Location
	started time.Time

	logger    *logging.ZapLogger
	audit     *audit.Logger
	collector *metrics.PrometheusCollector
	recorder  *metrics.Recorder
	catalog   *catalog.Catalog
	ctrl      *dashboard.Controller
}

func newApp(cfg Config, mode string) (*app, error) {
	a := &app{cfg: cfg, mode: mode, clock: clock.Real()}
	a.started = a.clock.Now()

	loc, err := cfg.location()
	if err != nil {
		return nil, err
	}
	a.loc = loc

	// The terminal UI owns the screen, so its logs always go to a file.
	if mode == modeTUI && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(stateDir(), "opsboard.log")
	}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
			return nil, errors.E(errors.KindConfig, "main", "create log directory", err)
		}
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	a.logger, err = logging.New(logging.Config{Level: level, File: cfg.Log.File, JSON: cfg.Log.JSON, Name: appName})
	if err != nil {
		return nil, err
	}

	if cfg.Seed != "" {
		a.catalog, err = catalog.LoadFile(cfg.Seed)
	} else {
		a.catalog, err = catalog.Default()
	}
	if err != nil {
		a.close()
		return nil, err
	}

	a.collector = metrics.NewPrometheusCollector(&metrics.PrometheusConfig{RegisterDefaultMetrics: true})
	a.recorder = metrics.NewRecorder(a.collector)
	a.recorder.RecordIntegrations(a.catalog.Integrations())

	a.ctrl = dashboard.New(a.catalog, dashboard.WithClock(a.clock), dashboard.WithObserver(a.recorder))
	a.recorder.RecordMetrics(a.ctrl.Metrics())

	if cfg.Audit.Enabled && mode != modeSnapshot {
		a.audit, err = audit.NewLogger(&audit.LoggerConfig{
			Actor:         mode,
			LogFile:       cfg.Audit.File,
			BufferSize:    cfg.Audit.BufferSize,
			FlushInterval: cfg.Audit.FlushInterval,
			Clock:         a.clock,
			Logger:        a.logger,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.audit.Start()
		a.audit.SessionStarted(mode, map[string]interface{}{
			"version": appVersion,
			"seed":    seedName(cfg.Seed),
		})
		a.ctrl.AddObserver(a.audit)
	}

	a.logger.Info("Loaded %d tickets and %d vulnerabilities from %s",
		len(a.catalog.Tickets()), len(a.catalog.Vulnerabilities()), seedName(cfg.Seed))
	return a, nil
}

func (a *app) close() {
	if a.audit != nil {
		a.audit.SessionStopped(a.clock.Now().Sub(a.started))
		if err := a.audit.Close(); err != nil {
			a.logger.Error("Failed to close audit log: %v", err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) runTUI(ctx context.Context) error {
	model := tui.New(a.ctrl, tui.WithClock(a.clock), tui.WithLocation(a.loc))
	return tui.Run(ctx, model)
}

func (a *app) serve(ctx context.Context) error {
	checks := health.NewHandler(
		health.WithVersion(appVersion),
		health.WithClock(a.clock),
	)
	checks.RegisterIntegrations(a.catalog.Integrations())
	checks.Register("memory", &health.MemoryCheck{MaxHeapBytes: 1 << 30})
	checks.Register("system_memory", &health.SystemMemoryCheck{MaxUsagePercent: 95})
	if a.audit != nil {
		checks.Register("disk", &health.DiskCheck{Path: filepath.Dir(a.audit.Path()), MinFreePercent: 5})
	}

	scfg := server.DefaultConfig()
	scfg.Addr = a.cfg.Server.Addr
	scfg.RateLimit = a.cfg.Server.RateLimit
	scfg.RateBurst = a.cfg.Server.RateBurst
	scfg.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
	scfg.Location = a.loc

	srv := server.New(dashboard.NewSession(a.ctrl), scfg,
		server.WithLogger(a.logger.With("component", "server")),
		server.WithAudit(a.audit),
		server.WithMetrics(a.collector),
		server.WithHealth(checks),
		server.WithClock(a.clock),
	)
	return srv.Run(ctx)
}

// snapshot writes the initial view as indented JSON to cfg.Output, or to
// stdout when the output is "-".
func (a *app) snapshot(stdout io.Writer) error {
	view := a.ctrl.View()

	if a.cfg.Output == "" || a.cfg.Output == "-" {
		return writeSnapshot(stdout, view, compress.AlgorithmNone)
	}

	f, err := os.Create(a.cfg.Output)
	if err != nil {
		return errors.E(errors.KindConfig, "main.snapshot", "create output file", err)
	}
	if err := writeSnapshot(f, view, compress.AlgorithmForPath(a.cfg.Output)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.E(errors.KindInternal, "main.snapshot", "close output file", err)
	}
	a.logger.Info("Snapshot written to %s", a.cfg.Output)
	return nil
}

func writeSnapshot(w io.Writer, view dashboard.View, algorithm compress.Algorithm) error {
	cw, err := compress.NewCompressor(algorithm, compress.LevelDefault).NewWriter(w)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		_ = cw.Close()
		return errors.E(errors.KindInternal, "main.snapshot", "encode view", err)
	}
	return cw.Close()
}

func seedName(path string) string {
	if path == "" {
		return "built-in seed"
	}
	return path
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `opsboard - IT operations dashboard.

Usage:
  opsboard [tui|serve|snapshot] [flags]

Examples:
  # Open the terminal dashboard
  opsboard

  # Serve the HTML dashboard and JSON API
  opsboard serve --addr :9090

  # Export the initial view, zstd compressed
  opsboard snapshot --output board.json.zst

Environment:
  %s, %s, %s

Flags:
`, envAddr, envSeed, envLogLevel)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
