// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7735s controls an ST7735S TFT panel over SPI.
//
// The ST7735S drives small 16-bit color panels; this package targets the
// common 0.96" 80x160 IPS bar but dimensions, rotation and RAM offsets are
// configurable since panel batches vary.
//
// The controller multiplexes opcodes and data on a single SPI wire,
// disambiguated by the data/command GPIO line. Pixels are streamed as
// packed big-endian RGB565 into a previously declared address window; the
// stream must match the window size exactly or the controller
// desynchronizes, which this driver enforces.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCL to SPI_CLK, CS to SPI_CS, plus three GPIO
// outputs for data/command select, reset and (optionally) backlight
// enable.
package st7735s
