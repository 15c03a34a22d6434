// Command quadcell-node runs a four-channel load-cell LoRaWAN node.
//
// The node wakes on a timer, establishes (or resumes) a network session,
// transmits one data frame, processes any queued downlink command and goes
// back to sleep. All radio traffic runs against the simulated stack; the
// persistent store and the retained region live under the data directory.
//
// Usage:
//
//	quadcell-node [flags]
//
// Flags:
//
//	-identity string   Identity file (YAML: dev_eui, root_key as hex)
//	-data string       Data directory for persistent state (default "data")
//	-retained string   Retained region file (default "/run/quadcell/retained.cbor")
//	-oneshot           Run a single wake cycle and exit
//	-interactive       Start the interactive shell instead of the wake loop
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Continuous operation with the default simulated identity
//	quadcell-node -data /var/lib/quadcell
//
//	# One wake cycle, driven by an external timer
//	quadcell-node -identity node.yaml -oneshot
//
//	# Interactive shell for bench work
//	quadcell-node -interactive -log-level debug
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quadcell-project/quadcell-go/cmd/quadcell-node/interactive"
	"github.com/quadcell-project/quadcell-go/pkg/lorastack/simstack"
	"github.com/quadcell-project/quadcell-go/pkg/node"
	"github.com/quadcell-project/quadcell-go/pkg/nodecfg"
	"github.com/quadcell-project/quadcell-go/pkg/nvstore"
	"github.com/quadcell-project/quadcell-go/pkg/radiolog"
	"github.com/quadcell-project/quadcell-go/pkg/retained"
	"github.com/quadcell-project/quadcell-go/pkg/sensor"
	"github.com/quadcell-project/quadcell-go/pkg/session"
	"github.com/quadcell-project/quadcell-go/pkg/version"
)

// Config holds the command-line configuration.
type Config struct {
	IdentityFile string
	DataDir      string
	RetainedPath string
	Oneshot      bool
	Interactive  bool
	LogLevel     string
}

// Identity is the node's provisioned identity, loaded from YAML.
type Identity struct {
	DevEUI  string `yaml:"dev_eui"`
	RootKey string `yaml:"root_key"`
}

var config Config

func init() {
	flag.StringVar(&config.IdentityFile, "identity", "", "Identity file (YAML: dev_eui, root_key as hex)")
	flag.StringVar(&config.DataDir, "data", "data", "Data directory for persistent state")
	flag.StringVar(&config.RetainedPath, "retained", retained.DefaultPath, "Retained region file")
	flag.BoolVar(&config.Oneshot, "oneshot", false, "Run a single wake cycle and exit")
	flag.BoolVar(&config.Interactive, "interactive", false, "Start the interactive shell")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	logger := setupLogging(config.LogLevel)
	logger.Info("quadcell-node", "version", version.Version)

	devEUI, rootKey, err := loadIdentity(config.IdentityFile)
	if err != nil {
		logger.Error("identity load failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		logger.Error("data directory", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(config.RetainedPath), 0o755); err != nil {
		// The retained region models RTC RAM; losing it costs a fresh
		// join, nothing more. Fall back next to the persistent store.
		fallback := filepath.Join(config.DataDir, "retained.cbor")
		logger.Warn("retained path unavailable, using fallback", "path", config.RetainedPath, "fallback", fallback)
		config.RetainedPath = fallback
	}

	events, err := radiolog.NewFileLogger(filepath.Join(config.DataDir, "radio.cborlog"))
	if err != nil {
		logger.Error("event log open failed", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	env := environment{
		devEUI:  devEUI,
		rootKey: rootKey,
		kv:      nvstore.NewStore(filepath.Join(config.DataDir, "store.json")),
		events:  events,
		logger:  logger,
	}

	if config.Interactive {
		runInteractive(env)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if config.Oneshot {
		runOneshot(ctx, env)
		return
	}
	runLoop(ctx, env)
}

// environment bundles the long-lived collaborators shared across wake
// cycles. The stack and the node itself are rebuilt every wake; only the
// persistent store, the event log and the identity survive.
type environment struct {
	devEUI  [8]byte
	rootKey [16]byte
	kv      *nvstore.Store
	events  *radiolog.FileLogger
	logger  *slog.Logger
}

// buildNode assembles a node from persisted state, exactly as the firmware
// does on every wake: configuration from the store, retained region from
// its backing file, a cold radio stack.
func buildNode(env environment) (*node.Node, *nodecfg.Config, *simstack.Stack, error) {
	cfgStore := nodecfg.NewStore(env.kv)
	cfg, err := cfgStore.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	stack := simstack.New(simstack.Options{DevEUI: env.devEUI, RootKey: env.rootKey})
	reader := sensor.NewSimReader(sensor.Readings{120000, 118500, 121300, 119800})

	// Diagnostics mode mirrors every radio event onto the process log.
	var events radiolog.Logger = env.events
	if cfg.Diagnostics {
		events = radiolog.NewMultiLogger(env.events, radiolog.NewSlogAdapter(env.logger))
	}

	n, err := node.New(node.Options{
		Stack:        stack,
		Sensor:       reader,
		Codec:        session.NewCodec(env.kv),
		Config:       &cfg,
		ConfigStore:  cfgStore,
		Retained:     retained.Load(config.RetainedPath),
		RetainedPath: config.RetainedPath,
		Events:       events,
		Logger:       env.logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return n, &cfg, stack, nil
}

// runLoop is the continuous mode: wake, cycle, sleep, repeat, until a
// signal arrives. DeepSleep drops radio and node state on the floor, so
// every iteration rebuilds from disk just like a real timed wake.
func runLoop(ctx context.Context, env environment) {
	for {
		n, _, _, err := buildNode(env)
		if err != nil {
			env.logger.Error("node assembly failed", "error", err)
			os.Exit(1)
		}

		result, err := n.RunCycle(ctx)
		if err != nil {
			env.logger.Warn("cycle aborted, sleeping until next wake", "error", err)
		}
		if result.Restart {
			// Restart skips the persistence path: the relaunch must see
			// the state as it was before this cycle.
			env.logger.Info("restart command received")
			continue
		}

		n.PrepareSleep()
		if !deepSleep(ctx, n.WakeInterval()) {
			env.logger.Info("shutting down")
			return
		}
	}
}

// runOneshot runs a single wake cycle for use under an external timer
// (systemd timer, cron). The process exit is the deep sleep.
func runOneshot(ctx context.Context, env environment) {
	n, _, _, err := buildNode(env)
	if err != nil {
		env.logger.Error("node assembly failed", "error", err)
		os.Exit(1)
	}

	result, err := n.RunCycle(ctx)
	if err != nil {
		n.PrepareSleep()
		os.Exit(1)
	}
	if result.Restart {
		env.logger.Info("restart command received, exiting without persisting")
		os.Exit(2)
	}
	n.PrepareSleep()
}

// runInteractive hands control to the shell. The shell drives cycles on
// demand and never deep-sleeps.
func runInteractive(env environment) {
	n, cfg, stack, err := buildNode(env)
	if err != nil {
		env.logger.Error("node assembly failed", "error", err)
		os.Exit(1)
	}

	sh, err := interactive.New(n, cfg, nodecfg.NewStore(env.kv), stack)
	if err != nil {
		env.logger.Error("shell start failed", "error", err)
		os.Exit(1)
	}
	sh.Run()
}

// deepSleep blocks for the wake interval. Returns false when interrupted
// by shutdown.
func deepSleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// loadIdentity reads the identity file, or falls back to a fixed bench
// identity when none is given.
func loadIdentity(path string) ([8]byte, [16]byte, error) {
	var devEUI [8]byte
	var rootKey [16]byte

	if path == "" {
		copy(devEUI[:], []byte{0x70, 0xB3, 0xD5, 0x7E, 0xD0, 0x00, 0x51, 0x43})
		copy(rootKey[:], []byte("quadcell-bench-0"))
		return devEUI, rootKey, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return devEUI, rootKey, err
	}
	var id Identity
	if err := yaml.Unmarshal(raw, &id); err != nil {
		return devEUI, rootKey, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := hexInto(devEUI[:], id.DevEUI, "dev_eui"); err != nil {
		return devEUI, rootKey, err
	}
	if err := hexInto(rootKey[:], id.RootKey, "root_key"); err != nil {
		return devEUI, rootKey, err
	}
	return devEUI, rootKey, nil
}

// hexInto decodes a hex string into dst, requiring an exact length match.
func hexInto(dst []byte, s, field string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("%s: want %d bytes, got %d", field, len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}

// setupLogging configures the process-wide slog logger.
func setupLogging(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}
