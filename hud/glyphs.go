// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Face sizes in supersampled pixels.
const (
	headerFaceSize = 28
	valueFaceSize  = 28
	netFaceSize    = 24
	iconSize       = 32
)

// GlyphSet holds the rasterization state of the HUD: the type faces, the
// pre-drawn icons, and a cache of rendered strings. Rendering produces
// alpha masks only; color is applied at blit time so the same mask serves
// every severity band.
type GlyphSet struct {
	header font.Face
	value  font.Face
	net    font.Face

	iconHost *image.Alpha
	iconCPU  *image.Alpha
	iconRAM  *image.Alpha
	iconDown *image.Alpha
	iconUp   *image.Alpha

	cache map[textKey]*image.Alpha
}

type textKey struct {
	face font.Face
	text string
}

// NewGlyphSet parses the embedded typeface and rasterizes the icons.
func NewGlyphSet() (*GlyphSet, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("hud: parsing typeface: %v", err)
	}
	face := func(size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	}
	return &GlyphSet{
		header:   face(headerFaceSize),
		value:    face(valueFaceSize),
		net:      face(netFaceSize),
		iconHost: drawIcon(iconHost),
		iconCPU:  drawIcon(iconCPU),
		iconRAM:  drawIcon(iconRAM),
		iconDown: drawIcon(iconDown),
		iconUp:   drawIcon(iconUp),
		cache:    map[textKey]*image.Alpha{},
	}, nil
}

// text returns the alpha mask of s rendered with face. Masks are cached;
// the HUD redraws the same handful of strings every second.
func (g *GlyphSet) text(face font.Face, s string) *image.Alpha {
	key := textKey{face, s}
	if m, ok := g.cache[key]; ok {
		return m
	}
	m := renderText(face, s)
	g.cache[key] = m
	return m
}

// textWidth returns the advance of s in supersampled pixels.
func (g *GlyphSet) textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func renderText(face font.Face, s string) *image.Alpha {
	metrics := face.Metrics()
	w := font.MeasureString(face, s).Ceil()
	h := (metrics.Ascent + metrics.Descent).Ceil()
	if w < 1 {
		w = 1
	}
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  m,
		Src:  image.NewUniform(color.Alpha{A: 0xFF}),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(s)
	return m
}

// drawIcon rasterizes a vector icon into an alpha mask.
func drawIcon(fn func(dc *gg.Context)) *image.Alpha {
	dc := gg.NewContext(iconSize, iconSize)
	dc.SetRGB(1, 1, 1)
	fn(dc)
	m := image.NewAlpha(image.Rect(0, 0, iconSize, iconSize))
	src := dc.Image()
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			m.SetAlpha(x, y, color.Alpha{A: uint8(a >> 8)})
		}
	}
	return m
}

// iconHost draws a rack unit: an outlined chassis with two drive slots.
func iconHost(dc *gg.Context) {
	dc.SetLineWidth(2.5)
	dc.DrawRoundedRectangle(3, 5, 26, 22, 3)
	dc.Stroke()
	dc.DrawLine(3, 16, 29, 16)
	dc.Stroke()
	dc.DrawCircle(8, 10.5, 1.8)
	dc.Fill()
	dc.DrawCircle(8, 21.5, 1.8)
	dc.Fill()
}

// iconCPU draws a chip: a die with pins on all four sides.
func iconCPU(dc *gg.Context) {
	dc.SetLineWidth(2.5)
	dc.DrawRoundedRectangle(8, 8, 16, 16, 2)
	dc.Stroke()
	dc.DrawRectangle(13, 13, 6, 6)
	dc.Fill()
	for _, p := range []float64{11, 16, 21} {
		dc.DrawLine(p, 3, p, 8)
		dc.DrawLine(p, 24, p, 29)
		dc.DrawLine(3, p, 8, p)
		dc.DrawLine(24, p, 29, p)
	}
	dc.Stroke()
}

// iconRAM draws a memory stick: a slab with contact fingers.
func iconRAM(dc *gg.Context) {
	dc.SetLineWidth(2.5)
	dc.DrawRoundedRectangle(3, 9, 26, 14, 2)
	dc.Stroke()
	for x := 8.0; x <= 24; x += 5.5 {
		dc.DrawLine(x, 23, x, 27)
	}
	dc.Stroke()
}

func iconDown(dc *gg.Context) {
	drawArrow(dc, false)
}

func iconUp(dc *gg.Context) {
	drawArrow(dc, true)
}

func drawArrow(dc *gg.Context, up bool) {
	shaftTop, shaftBot := 6.0, 19.0
	headY, tipY := 17.0, 27.0
	if up {
		shaftTop, shaftBot = 26.0, 13.0
		headY, tipY = 15.0, 5.0
	}
	dc.SetLineWidth(3.5)
	dc.DrawLine(16, shaftTop, 16, shaftBot)
	dc.Stroke()
	dc.MoveTo(8, headY)
	dc.LineTo(16, tipY)
	dc.LineTo(24, headY)
	dc.ClosePath()
	dc.Fill()
}
