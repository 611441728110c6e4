// Command panelpi-device runs the panel controller firmware on a Linux
// board: the fixed-rate control loop over real GPIO pins, exposed to the
// host through the register protocol on a serial port.
//
// Run with --sim to use simulated pins (no hardware required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/picoreplayer/panelpi-go/internal/bus"
	"github.com/picoreplayer/panelpi-go/internal/device"
)

func main() {
	var (
		serialPort = flag.String("serial-device", "/dev/ttyAMA0", "serial port to serve the register protocol on")
		sim        = flag.Bool("sim", false, "use simulated pins (no GPIO hardware required)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var core *device.Core
	if *sim {
		slog.Info("using simulated pins")
		core = device.New(device.NewSimPins(), device.NewSimPWM())
	} else {
		gpio, err := device.OpenGPIO(device.DefaultGPIOConfig())
		if err != nil {
			slog.Error("gpio initialization failed", "err", err)
			os.Exit(1)
		}
		core = device.New(gpio, gpio)
		go gpio.WatchEncoder(ctx, core)
	}

	go core.Run(ctx)

	target := bus.NewSerialTarget(core.Dispatcher())
	slog.Info("serving register protocol", "device", *serialPort)
	if err := target.ServePort(ctx, *serialPort); err != nil && ctx.Err() == nil {
		slog.Error("serial target failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}
