// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"fmt"
	"image"
	"time"

	"github.com/atefalvi/pi-rack-hud/metrics"
	"github.com/atefalvi/pi-rack-hud/st7735s/rgb565"
)

// Layout in supersampled coordinates, laid out for the 160x80 landscape
// panel (320x160 once supersampled).
const (
	headerIconX, headerIconY = 8, 4
	hostnameX, hostnameY     = 44, 8
	staleDotSize             = 8

	cpuRowY    = 56
	ramRowY    = 92
	rowIconX   = 12
	barX       = 48
	barYOffset = 8
	barW, barH = 180, 16
	labelX     = 240

	footerY            = 128
	rxIconX, rxTextX   = 16, 48
	txIconX, txTextX   = 176, 208
	footerIconYOffset  = 4
	footerLabelYOffset = 8

	margin = 8
)

// Compositor turns telemetry snapshots into panel-sized frames. Rendering
// is deterministic: the same snapshot, staleness and interval always
// produce the same frame bytes.
type Compositor struct {
	theme  Theme
	usage  Thresholds
	temp   Thresholds
	glyphs *GlyphSet
	canvas *Canvas
	frame  *rgb565.Image
}

// NewCompositor returns a Compositor for a panel of the given logical
// size.
func NewCompositor(panelW, panelH int, theme Theme, usage, temp Thresholds) (*Compositor, error) {
	g, err := NewGlyphSet()
	if err != nil {
		return nil, err
	}
	return &Compositor{
		theme:  theme,
		usage:  usage,
		temp:   temp,
		glyphs: g,
		canvas: NewCanvas(panelW, panelH),
		frame:  rgb565.NewImage(image.Rect(0, 0, panelW, panelH)),
	}, nil
}

// Render composes one frame from snap. stale marks the snapshot as a
// carried-over reading from a failed collection; interval scales the
// network byte deltas to per-second rates. The returned image is reused
// across calls.
func (c *Compositor) Render(snap metrics.Snapshot, stale bool, interval time.Duration) *rgb565.Image {
	cv := c.canvas
	th := c.theme
	right := cv.Bounds().Max.X
	cv.Clear(th.Background)

	// Header: host identity on the left, temperature on the right.
	cv.BlitGlyph(headerIconX, headerIconY, c.glyphs.iconHost, th.Text)
	cv.BlitGlyph(hostnameX, hostnameY, c.glyphs.text(c.glyphs.header, snap.Hostname), th.Text)
	if stale {
		x := hostnameX + c.glyphs.textWidth(c.glyphs.header, snap.Hostname) + 10
		cv.FillRect(x, hostnameY+8, staleDotSize, staleDotSize, th.TextDim)
	}
	tempText, tempColor := c.tempLabel(snap.TempCelsius)
	cv.BlitGlyph(right-margin-c.glyphs.textWidth(c.glyphs.header, tempText), hostnameY,
		c.glyphs.text(c.glyphs.header, tempText), tempColor)

	c.meterRow(cpuRowY, c.glyphs.iconCPU, snap.CPUPercent)
	c.meterRow(ramRowY, c.glyphs.iconRAM, snap.RAMPercent)

	// Footer: network rates on a contrasting strip.
	cv.FillRect(0, footerY, right, cv.Bounds().Max.Y-footerY, th.BarBackground)
	cv.BlitGlyph(rxIconX, footerY+footerIconYOffset, c.glyphs.iconDown, th.RxAccent)
	cv.BlitGlyph(rxTextX, footerY+footerLabelYOffset,
		c.glyphs.text(c.glyphs.net, formatRate(snap.RxBytesDelta, interval)), th.Text)
	cv.BlitGlyph(txIconX, footerY+footerIconYOffset, c.glyphs.iconUp, th.TxAccent)
	cv.BlitGlyph(txTextX, footerY+footerLabelYOffset,
		c.glyphs.text(c.glyphs.net, formatRate(snap.TxBytesDelta, interval)), th.Text)

	cv.Downsample(c.frame)
	return c.frame
}

// meterRow draws an icon, a usage bar and its percentage label.
func (c *Compositor) meterRow(y int, icon *image.Alpha, pct float64) {
	cv := c.canvas
	col := c.theme.severityColor(pct, c.usage)
	cv.BlitGlyph(rowIconX, y, icon, c.theme.TextDim)
	cv.FillRect(barX, y+barYOffset, barW, barH, c.theme.BarBackground)
	cv.DrawBar(barX, y+barYOffset, barW, barH, pct/100, col)
	label := fmt.Sprintf("%.0f%%", clampPercent(pct))
	cv.BlitGlyph(labelX, y, c.glyphs.text(c.glyphs.value, label), col)
}

// tempLabel formats the temperature and picks its severity color. A zero
// reading means no sensor was readable; show a dimmed placeholder instead
// of a misleading 0 degrees.
func (c *Compositor) tempLabel(t float64) (string, rgb565.Color) {
	if t <= 0 {
		return "--°", c.theme.TextDim
	}
	return fmt.Sprintf("%.0f°", t), c.theme.severityColor(t, c.temp)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// formatRate renders a byte delta over interval as a compact per-second
// rate, at most four characters wide.
func formatRate(delta uint64, interval time.Duration) string {
	secs := interval.Seconds()
	if secs <= 0 {
		secs = 1
	}
	rate := float64(delta) / secs
	switch {
	case rate >= 1<<30:
		return fmt.Sprintf("%.1fG", rate/(1<<30))
	case rate >= 1<<20:
		return fmt.Sprintf("%.1fM", rate/(1<<20))
	case rate >= 1<<10:
		return fmt.Sprintf("%.0fK", rate/(1<<10))
	default:
		return fmt.Sprintf("%.0fB", rate)
	}
}
