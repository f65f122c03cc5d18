// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"image"
	"math"

	"github.com/atefalvi/pi-rack-hud/st7735s/rgb565"
)

// SuperSample is the linear oversampling factor of the Canvas. Drawing
// happens at SuperSample times the panel resolution and Downsample's box
// filter provides the antialiasing.
const SuperSample = 2

// Canvas is an offscreen supersampled RGB565 frame under composition.
// Coordinates of all drawing primitives are in supersampled space. The
// Canvas is not safe for concurrent use; it is owned by the compositor for
// the duration of a refresh cycle.
type Canvas struct {
	panelW, panelH int
	img            *rgb565.Image
}

// NewCanvas returns a Canvas for a panel of the given logical size.
func NewCanvas(panelW, panelH int) *Canvas {
	return &Canvas{
		panelW: panelW,
		panelH: panelH,
		img:    rgb565.NewImage(image.Rect(0, 0, panelW*SuperSample, panelH*SuperSample)),
	}
}

// Bounds returns the supersampled drawing bounds.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Image exposes the supersampled buffer.
func (c *Canvas) Image() *rgb565.Image {
	return c.img
}

// Clear fills the whole buffer so no pixels leak between frames.
func (c *Canvas) Clear(col rgb565.Color) {
	c.img.Fill(col)
}

// FillRect fills the rectangle of size w x h at (x, y), clipped to the
// buffer. A rectangle fully outside the buffer is a no-op.
func (c *Canvas) FillRect(x, y, w, h int, col rgb565.Color) {
	r := image.Rect(x, y, x+w, y+h).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			c.img.SetRGB565(px, py, col)
		}
	}
}

// DrawBar fills the leftmost round(w*fraction) pixels of a w x h bar at
// (x, y). The fraction is clamped to [0, 1]; momentary out of range
// metrics must not break rendering.
func (c *Canvas) DrawBar(x, y, w, h int, fraction float64, col rgb565.Color) {
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	c.FillRect(x, y, int(math.Round(float64(w)*fraction)), h, col)
}

// BlitGlyph composites a pre-rasterized alpha mask at (x, y) using col as
// the foreground. Background pixels show through where the mask is
// transparent; the glyph never erases the region fill behind it.
func (c *Canvas) BlitGlyph(x, y int, mask *image.Alpha, col rgb565.Color) {
	if mask == nil {
		return
	}
	mb := mask.Bounds()
	dst := image.Rect(x, y, x+mb.Dx(), y+mb.Dy()).Intersect(c.img.Bounds())
	if dst.Empty() {
		return
	}
	fr, fg, fb := uint32(col.R()), uint32(col.G()), uint32(col.B())
	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		for px := dst.Min.X; px < dst.Max.X; px++ {
			a := uint32(mask.AlphaAt(px-x+mb.Min.X, py-y+mb.Min.Y).A)
			if a == 0 {
				continue
			}
			if a == 0xFF {
				c.img.SetRGB565(px, py, col)
				continue
			}
			bg := c.img.RGB565At(px, py)
			br, bgc, bb := uint32(bg.R()), uint32(bg.G()), uint32(bg.B())
			c.img.SetRGB565(px, py, rgb565.New(
				uint8((fr*a+br*(255-a))/255),
				uint8((fg*a+bgc*(255-a))/255),
				uint8((fb*a+bb*(255-a))/255),
			))
		}
	}
}

// Downsample box-filters the supersampled buffer into dst, which must be
// panel sized. Every output pixel is the channel-wise average of its
// SuperSample x SuperSample source block. The operation is a pure
// function of the buffer contents.
func (c *Canvas) Downsample(dst *rgb565.Image) {
	const n = SuperSample * SuperSample
	for py := 0; py < c.panelH; py++ {
		for px := 0; px < c.panelW; px++ {
			var r, g, b uint32
			for dy := 0; dy < SuperSample; dy++ {
				for dx := 0; dx < SuperSample; dx++ {
					s := c.img.RGB565At(px*SuperSample+dx, py*SuperSample+dy)
					r += uint32(s.R())
					g += uint32(s.G())
					b += uint32(s.B())
				}
			}
			dst.SetRGB565(px+dst.Rect.Min.X, py+dst.Rect.Min.Y, rgb565.New(uint8(r/n), uint8(g/n), uint8(b/n)))
		}
	}
}
