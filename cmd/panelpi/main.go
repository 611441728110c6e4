// Command panelpi is the PanelPi front-panel daemon. It drives the panel
// controller board over I2C or serial, maps panel inputs to media-player
// actions over MPRIS, animates the VU meters from a live audio feed and
// serves the REST/SSE API.
//
// Run with --transport mock to use a simulated controller (no hardware
// required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/api"
	"github.com/picoreplayer/panelpi-go/internal/auth"
	"github.com/picoreplayer/panelpi-go/internal/bus"
	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/config"
	"github.com/picoreplayer/panelpi-go/internal/controller"
	"github.com/picoreplayer/panelpi-go/internal/device"
	"github.com/picoreplayer/panelpi-go/internal/events"
	"github.com/picoreplayer/panelpi-go/internal/input"
	"github.com/picoreplayer/panelpi-go/internal/level"
	"github.com/picoreplayer/panelpi-go/internal/maintenance"
	"github.com/picoreplayer/panelpi-go/internal/zeroconf"
)

func main() {
	var (
		transport  = flag.String("transport", "i2c", "controller transport: i2c, serial or mock")
		i2cPath    = flag.String("i2c-device", "/dev/i2c-1", "I2C bus device path")
		serialPort = flag.String("serial-device", "/dev/ttyAMA0", "serial port device path")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir     = flag.String("config-dir", "", "config directory (default: ~/.config/panelpi)")
		audioFifo  = flag.String("audio-fifo", "", "path to stereo float32 audio FIFO for the VU meters (empty = meters idle)")
		sampleRate = flag.Int("sample-rate", 44100, "audio sample rate in Hz")
		player     = flag.String("player", "", "MPRIS bus name of the media player (empty = auto-discover)")
		playerCmd  = flag.String("player-cmd", "", "playback control binary to shell out to instead of MPRIS (e.g. pcp)")
		pollRate   = flag.Int("poll-rate", input.DefaultPollRate, "input poll rate in Hz")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "panelpi")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Controller transport
	var master bus.Master
	switch *transport {
	case "i2c":
		slog.Info("using I2C transport", "device", *i2cPath)
		master = bus.NewI2CPath(*i2cPath)
	case "serial":
		slog.Info("using serial transport", "device", *serialPort)
		master = bus.NewSerial(*serialPort)
	case "mock":
		slog.Info("using simulated controller")
		core := device.New(device.NewSimPins(), device.NewSimPWM())
		go core.Run(ctx)
		master = bus.NewLoopback(core.Dispatcher())
	default:
		slog.Error("unknown transport", "transport", *transport)
		os.Exit(1)
	}

	cl, err := client.Connect(ctx, master)
	if err != nil {
		slog.Error("controller board not responding", "err", err)
		os.Exit(1)
	}
	defer cl.Close()

	// Config store and event bus
	store := config.NewJSONStore(*cfgDir)
	evBus := events.NewBus()

	ctrl, err := controller.New(cl, store, evBus, *transport)
	if err != nil {
		slog.Error("controller initialization failed", "err", err)
		os.Exit(1)
	}

	// Reload state when panel.json is edited externally
	watcher := config.Watch(store, func() {
		if err := ctrl.Reload(context.Background()); err != nil {
			slog.Warn("config reload failed", "err", err)
		}
	})
	defer watcher.Close()

	// Auth service
	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	// Input polling loop with playback dispatch
	var mediaPlayer input.Player
	if *playerCmd != "" {
		mediaPlayer = input.NewExecPlayer(*playerCmd)
	} else {
		mpris := input.NewMPRISPlayer(*player)
		defer mpris.Close()
		mediaPlayer = mpris
	}
	handler := input.NewHandler(ctrl, mediaPlayer, *pollRate)
	go func() {
		if err := handler.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("input handler stopped", "err", err)
		}
	}()

	// VU meter engine, fed from an audio FIFO when one is configured
	if *audioFifo != "" {
		eng := level.NewEngine(cl, level.Options{SampleRate: *sampleRate})
		go runLevelEngine(ctx, eng, *audioFifo)
	}

	// Maintenance goroutines (online check, release check, config backups)
	maint := maintenance.New(*cfgDir,
		func(online bool) {
			slog.Info("online status changed", "online", online)
		},
		func(release string) {
			slog.Info("new release available", "version", release)
		},
	)
	go maint.Start(ctx)

	// Zeroconf mDNS registration
	hostname, _ := os.Hostname()
	port := 8080
	if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
		if p, err := strconv.Atoi(parts[1]); err == nil {
			port = p
		}
	}
	zc := zeroconf.New(hostname, port)
	go func() {
		if err := zc.Start(ctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
	}()

	// HTTP server
	router := api.NewRouter(ctrl, authSvc, evBus)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("PanelPi listening", "addr", *addr, "transport", *transport, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Flush pending config writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush config", "err", err)
	}

	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}

// runLevelEngine keeps the meter engine attached to the audio FIFO,
// reopening it whenever the writer side goes away.
func runLevelEngine(ctx context.Context, eng *level.Engine, fifoPath string) {
	for ctx.Err() == nil {
		f, err := os.Open(fifoPath)
		if err != nil {
			slog.Warn("cannot open audio fifo", "path", fifoPath, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}
		if err := eng.Run(ctx, f); err != nil && ctx.Err() == nil {
			slog.Warn("level engine stopped", "err", err)
		}
		f.Close()
	}
}
