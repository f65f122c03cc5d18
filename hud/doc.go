// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hud renders host telemetry into RGB565 frames and drives their
// delivery to a display.
//
// The pipeline is: a metrics.Source produces a Snapshot each tick, the
// Compositor draws it onto a supersampled Canvas and box-filters the
// result down to panel resolution, and the Loop pushes the changed region
// to a FrameSink. The st7735s driver and the termview preview both
// implement FrameSink.
//
// The compositor layout targets the 160x80 landscape orientation
// (rotation 90 or 270). In portrait the right-hand columns clip off the
// 80 pixel wide panel.
package hud
