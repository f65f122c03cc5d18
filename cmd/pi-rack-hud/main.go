// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pi-rack-hud drives a ST7735S panel with live host telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/atefalvi/pi-rack-hud/hud"
	"github.com/atefalvi/pi-rack-hud/metrics"
	"github.com/atefalvi/pi-rack-hud/st7735s"
	"github.com/atefalvi/pi-rack-hud/termview"
)

type config struct {
	spiPort  string
	dcName   string
	rstName  string
	blName   string
	interval time.Duration
	term     bool

	opts  st7735s.Opts
	usage hud.Thresholds
	temp  hud.Thresholds
}

func parseFlags(args []string) (*config, error) {
	c := &config{
		opts:  st7735s.DefaultOpts,
		usage: hud.DefaultUsageThresholds,
		temp:  hud.DefaultTempThresholds,
	}
	fs := flag.NewFlagSet("pi-rack-hud", flag.ContinueOnError)
	fs.StringVar(&c.spiPort, "spi", "SPI0.0", "SPI port the panel is connected to")
	fs.StringVar(&c.dcName, "dc", "GPIO25", "data/command pin")
	fs.StringVar(&c.rstName, "rst", "GPIO27", "reset pin")
	fs.StringVar(&c.blName, "bl", "GPIO24", "backlight pin")
	fs.DurationVar(&c.interval, "interval", time.Second, "refresh interval")
	fs.BoolVar(&c.term, "term", false, "render to the terminal instead of the panel")

	// Panel batches vary in how the glass sits inside the controller RAM.
	fs.IntVar(&c.opts.XOffset, "xoff", c.opts.XOffset, "horizontal RAM offset of the visible glass")
	fs.IntVar(&c.opts.YOffset, "yoff", c.opts.YOffset, "vertical RAM offset of the visible glass")
	fs.Var(&c.opts.Rotation, "rotation", "panel rotation (0, 90, 180, 270)")
	fs.Var(&c.opts.Freq, "hz", "SPI clock")
	fs.BoolVar(&c.opts.Invert, "invert", c.opts.Invert, "panel uses inverted colors")

	fs.Float64Var(&c.usage.Low, "low", c.usage.Low, "usage percentage of the moderate band")
	fs.Float64Var(&c.usage.High, "high", c.usage.High, "usage percentage of the high band")
	fs.Float64Var(&c.temp.Low, "temp-low", c.temp.Low, "temperature in Celsius of the moderate band")
	fs.Float64Var(&c.temp.High, "temp-high", c.temp.High, "temperature in Celsius of the high band")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return c, nil
}

func mainImpl() error {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := metrics.NewSystemSource()
	if err != nil {
		return err
	}

	var sink hud.FrameSink
	if cfg.term {
		w, h := cfg.opts.Width, cfg.opts.Height
		if cfg.opts.Rotation == st7735s.Rotate90 || cfg.opts.Rotation == st7735s.Rotate270 {
			w, h = h, w
		}
		sink = termview.New(&termview.Opts{Width: w, Height: h})
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		port, err := spireg.Open(cfg.spiPort)
		if err != nil {
			return err
		}
		defer port.Close()

		dev, err := st7735s.New(port,
			gpioreg.ByName(cfg.dcName),
			gpioreg.ByName(cfg.rstName),
			gpioreg.ByName(cfg.blName),
			&cfg.opts)
		if err != nil {
			return err
		}
		if err := dev.Init(); err != nil {
			return err
		}
		sink = dev
	}

	b := sink.Bounds()
	comp, err := hud.NewCompositor(b.Dx(), b.Dy(), hud.DefaultTheme, cfg.usage, cfg.temp)
	if err != nil {
		return err
	}

	return hud.NewLoop(sink, source, comp, cfg.interval, log.Default()).Run(ctx)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "pi-rack-hud: %v\n", err)
		os.Exit(1)
	}
}
