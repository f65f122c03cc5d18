// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hud

import "github.com/atefalvi/pi-rack-hud/st7735s/rgb565"

// Theme is the color palette of the HUD.
type Theme struct {
	Background    rgb565.Color
	BarBackground rgb565.Color
	Text          rgb565.Color
	TextDim       rgb565.Color
	Normal        rgb565.Color
	Moderate      rgb565.Color
	High          rgb565.Color
	RxAccent      rgb565.Color
	TxAccent      rgb565.Color
}

// Thresholds split a metric into normal, moderate and high bands. Low and
// High are in the metric's own scale (percent for usage, degrees Celsius
// for temperature).
type Thresholds struct {
	Low  float64
	High float64
}

// DefaultTheme is a dark palette tuned for a small panel viewed at an
// angle in a rack.
var DefaultTheme = Theme{
	Background:    rgb565.New(0x00, 0x00, 0x00),
	BarBackground: rgb565.New(0x2A, 0x2A, 0x2D),
	Text:          rgb565.New(0xFF, 0xFF, 0xFF),
	TextDim:       rgb565.New(0x8E, 0x8E, 0x93),
	Normal:        rgb565.New(0x30, 0xD1, 0x58),
	Moderate:      rgb565.New(0xFF, 0xD6, 0x0A),
	High:          rgb565.New(0xFF, 0x45, 0x3A),
	RxAccent:      rgb565.New(0x0A, 0x84, 0xFF),
	TxAccent:      rgb565.New(0xBF, 0x5A, 0xF2),
}

// DefaultUsageThresholds color CPU and RAM percentages.
var DefaultUsageThresholds = Thresholds{Low: 60, High: 80}

// DefaultTempThresholds color the CPU temperature in degrees Celsius.
var DefaultTempThresholds = Thresholds{Low: 60, High: 70}

// severityColor maps a value to the theme color of its band. The mapping
// is monotonic: raising the value never lowers the severity.
func (t Theme) severityColor(v float64, th Thresholds) rgb565.Color {
	switch {
	case v >= th.High:
		return t.High
	case v >= th.Low:
		return t.Moderate
	default:
		return t.Normal
	}
}
