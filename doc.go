// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pirackhud contains a HUD for rack-mounted single board
// computers: an ST7735S SPI panel driver, an RGB565 renderer for host
// telemetry, and the refresh loop tying them together.
//
// See cmd/pi-rack-hud for the binary.
package pirackhud
