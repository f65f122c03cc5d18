// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package metrics provides the host telemetry snapshots rendered by the
// HUD.
package metrics

// Snapshot is one reading of the host telemetry. Each snapshot is
// independent; the network fields are byte deltas since the previous
// snapshot from the same source.
//
// CPU and RAM percentages are nominally in [0, 100] but may momentarily
// exceed it; the renderer clamps.
type Snapshot struct {
	CPUPercent   float64
	RAMPercent   float64
	TempCelsius  float64
	RxBytesDelta uint64
	TxBytesDelta uint64
	Hostname     string
}

// Source produces snapshots on demand. An error means no snapshot could be
// produced this tick; callers are expected to reuse the previous snapshot
// rather than stop rendering.
type Source interface {
	Snapshot() (Snapshot, error)
}
