// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 implements the 16-bit RGB565 pixel format used by the
// ST7735S pixel interface.
//
// Pixels are stored big-endian, two bytes per pixel, exactly as they are
// streamed to the controller, so Image.Pix can be transferred without
// further conversion.
package rgb565

import (
	"image"
	"image/color"
)

// Color is a packed RGB565 color: 5 bits red, 6 bits green, 5 bits blue.
type Color uint16

// New packs 8-bit channels into an RGB565 color.
func New(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// R returns the 8-bit approximation of the red channel.
func (c Color) R() uint8 {
	r := uint8(c>>11) & 0x1F
	return r<<3 | r>>2
}

// G returns the 8-bit approximation of the green channel.
func (c Color) G() uint8 {
	g := uint8(c>>5) & 0x3F
	return g<<2 | g>>4
}

// B returns the 8-bit approximation of the blue channel.
func (c Color) B() uint8 {
	b := uint8(c) & 0x1F
	return b<<3 | b>>2
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return uint32(c.R()) * 0x101, uint32(c.G()) * 0x101, uint32(c.B()) * 0x101, 0xFFFF
}

func toColor(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return New(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts any color.Color to Color.
var Model = color.ModelFunc(toColor)

// Image is an in-memory RGB565 image. The pixel layout matches the
// controller's memory write order: row-major, two bytes per pixel,
// most significant byte first.
type Image struct {
	// Pix holds the packed pixels. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*2].
	Pix []byte
	// Stride is the distance in bytes between vertically adjacent pixels.
	Stride int
	// Rect is the image bounds.
	Rect image.Rectangle
}

// NewImage returns an initialized (all black) Image.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, w*h*2),
		Stride: w * 2,
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.RGB565At(x, y)
}

// RGB565At returns the Color of the pixel at (x, y). It returns black for
// out of bounds coordinates.
func (i *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return 0
	}
	o := i.PixOffset(x, y)
	return Color(uint16(i.Pix[o])<<8 | uint16(i.Pix[o+1]))
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the pixel at (x, y). Out of bounds coordinates are
// ignored. It is faster than Set as it skips the color conversion.
func (i *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	o := i.PixOffset(x, y)
	i.Pix[o] = byte(c >> 8)
	i.Pix[o+1] = byte(c)
}

// PixOffset returns the index into Pix of the first byte of the pixel at
// (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

// Fill sets every pixel to c.
func (i *Image) Fill(c Color) {
	hi, lo := byte(c>>8), byte(c)
	for o := 0; o < len(i.Pix); o += 2 {
		i.Pix[o] = hi
		i.Pix[o+1] = lo
	}
}

// Row returns the packed bytes of the pixels [x0, x1) on row y.
func (i *Image) Row(y, x0, x1 int) []byte {
	return i.Pix[i.PixOffset(x0, y):i.PixOffset(x1, y)]
}
