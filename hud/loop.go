// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"bytes"
	"context"
	"image"
	"log"
	"time"

	"github.com/atefalvi/pi-rack-hud/metrics"
	"github.com/atefalvi/pi-rack-hud/st7735s/rgb565"
)

// FrameSink receives rendered frames. It is the panel seen from the
// loop's side: a physical display or a terminal preview.
type FrameSink interface {
	// Bounds returns the frame size the sink expects.
	Bounds() image.Rectangle
	// DrawRegion pushes the r portion of src to the sink.
	DrawRegion(r image.Rectangle, src *rgb565.Image) error
	// Halt turns the sink off.
	Halt() error
}

// reinitializer is implemented by sinks that can re-run their power-on
// sequence after the panel lost state.
type reinitializer interface {
	Reinit() error
}

const (
	reinitBackoffMin = time.Second
	reinitBackoffMax = 30 * time.Second
)

// Loop periodically samples a metrics source, renders a frame and pushes
// the changed region to the sink. A failed collection reuses the previous
// snapshot with a staleness marker; a failed push falls back to a full
// frame and, when the sink supports it, reinitializes the panel with
// exponential backoff.
type Loop struct {
	sink     FrameSink
	source   metrics.Source
	comp     *Compositor
	interval time.Duration
	logger   *log.Logger

	last     metrics.Snapshot
	prev     *rgb565.Image
	havePrev bool

	backoff    time.Duration
	nextReinit time.Time
}

// NewLoop returns a Loop refreshing sink from source every interval.
func NewLoop(sink FrameSink, source metrics.Source, comp *Compositor, interval time.Duration, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		sink:     sink,
		source:   source,
		comp:     comp,
		interval: interval,
		logger:   logger,
		prev:     rgb565.NewImage(sink.Bounds()),
	}
}

// Run refreshes the display until ctx is cancelled, then halts the sink.
// The first frame is drawn immediately, without waiting for a tick.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.sink.Halt(); err != nil {
			l.logger.Printf("halting display: %v", err)
		}
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.tick()
		}
	}
}

func (l *Loop) tick() {
	snap, err := l.source.Snapshot()
	stale := err != nil
	if stale {
		l.logger.Printf("collecting metrics: %v", err)
		snap = l.last
	} else {
		l.last = snap
	}
	frame := l.comp.Render(snap, stale, l.interval)

	region := frame.Bounds()
	if l.havePrev {
		region = dirtyRegion(l.prev, frame)
		if region.Empty() {
			return
		}
	}
	if err := l.push(region, frame); err != nil {
		l.logger.Printf("updating display: %v", err)
		// The panel contents are unknown now; the next good push must
		// cover the whole frame.
		l.havePrev = false
		l.maybeReinit()
		return
	}
	copy(l.prev.Pix, frame.Pix)
	l.havePrev = true
	l.backoff = 0
}

// push writes region, retrying once with the full frame. Transient bus
// errors are usually gone by the next transfer.
func (l *Loop) push(region image.Rectangle, frame *rgb565.Image) error {
	err := l.sink.DrawRegion(region, frame)
	if err == nil {
		return nil
	}
	l.logger.Printf("partial update failed, retrying full frame: %v", err)
	return l.sink.DrawRegion(frame.Bounds(), frame)
}

// maybeReinit re-runs the sink's init sequence, rate limited by an
// exponential backoff so a dead bus is not hammered every tick.
func (l *Loop) maybeReinit() {
	r, ok := l.sink.(reinitializer)
	if !ok {
		return
	}
	now := time.Now()
	if now.Before(l.nextReinit) {
		return
	}
	switch {
	case l.backoff == 0:
		l.backoff = reinitBackoffMin
	case l.backoff < reinitBackoffMax:
		l.backoff *= 2
		if l.backoff > reinitBackoffMax {
			l.backoff = reinitBackoffMax
		}
	}
	l.nextReinit = now.Add(l.backoff)
	if err := r.Reinit(); err != nil {
		l.logger.Printf("reinitializing display: %v", err)
	}
}

// dirtyRegion returns the bounding box of the pixels that differ between
// prev and cur, or the empty rectangle when the frames are identical.
// Both images must share bounds and stride.
func dirtyRegion(prev, cur *rgb565.Image) image.Rectangle {
	b := cur.Bounds()
	y0, y1 := -1, -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		o := cur.PixOffset(b.Min.X, y)
		e := o + b.Dx()*2
		if !bytes.Equal(prev.Pix[o:e], cur.Pix[o:e]) {
			if y0 < 0 {
				y0 = y
			}
			y1 = y + 1
		}
	}
	if y0 < 0 {
		return image.Rectangle{}
	}
	x0, x1 := b.Max.X, b.Min.X
	for y := y0; y < y1; y++ {
		for x := b.Min.X; x < x0; x++ {
			if cur.RGB565At(x, y) != prev.RGB565At(x, y) {
				x0 = x
				break
			}
		}
		for x := b.Max.X - 1; x >= x1; x-- {
			if cur.RGB565At(x, y) != prev.RGB565At(x, y) {
				x1 = x + 1
				break
			}
		}
	}
	return image.Rect(x0, y0, x1, y1)
}
