// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview renders RGB565 frames to a terminal using ANSI color
// codes.
//
// Useful to preview the HUD layout on a workstation while the panel is
// screwed into the rack.
package termview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/atefalvi/pi-rack-hud/st7735s/rgb565"
)

// Opts represents the options available for this display.
type Opts struct {
	Width   int
	Height  int
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a panel emulator that outputs to the console. Every other pixel
// row is skipped so the roughly 1:2 aspect of terminal cells keeps the
// image proportions.
type Dev struct {
	w       io.Writer
	bounds  image.Rectangle
	palette ansi256.Palette

	frame *rgb565.Image
	buf   bytes.Buffer
	drawn bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Dev{
		w:       colorable.NewColorableStdout(),
		bounds:  image.Rect(0, 0, opts.Width, opts.Height),
		palette: *p,
		frame:   rgb565.NewImage(image.Rect(0, 0, opts.Width, opts.Height)),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermView{%s}", d.bounds.Max)
}

// Bounds returns the emulated panel size.
func (d *Dev) Bounds() image.Rectangle {
	return d.bounds
}

// DrawRegion copies the r portion of src into the emulated panel and
// repaints the console.
func (d *Dev) DrawRegion(r image.Rectangle, src *rgb565.Image) error {
	if !r.In(d.bounds) || r.Empty() {
		return fmt.Errorf("termview: window %v is not inside %v", r, d.bounds)
	}
	if !r.In(src.Bounds()) {
		return fmt.Errorf("termview: window %v is not inside the source %v", r, src.Bounds())
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.frame.SetRGB565(x, y, src.RGB565At(x, y))
		}
	}
	return d.refresh()
}

// Halt clears the color state so the shell prompt is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

func (d *Dev) refresh() error {
	// Designed to minimize the amount of memory allocated per call. After
	// the first frame the cursor moves back up instead of scrolling.
	d.buf.Reset()
	rows := (d.bounds.Max.Y + 1) / 2
	if d.drawn {
		fmt.Fprintf(&d.buf, "\033[%dA", rows)
	}
	for y := 0; y < d.bounds.Max.Y; y += 2 {
		for x := 0; x < d.bounds.Max.X; x++ {
			c := d.frame.RGB565At(x, y)
			_, _ = io.WriteString(&d.buf, d.palette.Block(color.NRGBA{c.R(), c.G(), c.B(), 255}))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ fmt.Stringer = &Dev{}
