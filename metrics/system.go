// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// hostnameLimit bounds the label so it fits the header region.
const hostnameLimit = 12

// SystemSource reads telemetry from the local host.
type SystemSource struct {
	hostname string

	// counters is swappable for tests.
	counters       func() (rx, tx uint64, err error)
	lastRx, lastTx uint64
	primed         bool
}

// NewSystemSource returns a Source backed by the operating system. It
// primes the CPU accounting so that the first Snapshot returns a usage
// over a real interval instead of zero.
func NewSystemSource() (*SystemSource, error) {
	name, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("metrics: hostname: %v", err)
	}
	s := &SystemSource{
		hostname: truncateHostname(name),
		counters: netCounters,
	}
	// First call establishes the baseline for since-last-call readings.
	_, _ = cpu.Percent(0, false)
	if rx, tx, err := s.counters(); err == nil {
		s.lastRx, s.lastTx = rx, tx
		s.primed = true
	}
	return s, nil
}

// Snapshot implements Source.
func (s *SystemSource) Snapshot() (Snapshot, error) {
	pcts, err := cpu.Percent(0, false)
	if err != nil || len(pcts) == 0 {
		return Snapshot{}, fmt.Errorf("metrics: cpu: %v", err)
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("metrics: memory: %v", err)
	}
	snap := Snapshot{
		CPUPercent:  pcts[0],
		RAMPercent:  vm.UsedPercent,
		TempCelsius: cpuTemperature(),
		Hostname:    s.hostname,
	}
	snap.RxBytesDelta, snap.TxBytesDelta = s.netDeltas()
	return snap, nil
}

// netDeltas returns the bytes moved since the previous call. A failed
// counter read yields zero deltas for the tick; counter wrap or interface
// reset restarts the baseline.
func (s *SystemSource) netDeltas() (rx, tx uint64) {
	curRx, curTx, err := s.counters()
	if err != nil {
		return 0, 0
	}
	if s.primed {
		if curRx >= s.lastRx {
			rx = curRx - s.lastRx
		}
		if curTx >= s.lastTx {
			tx = curTx - s.lastTx
		}
	}
	s.lastRx, s.lastTx = curRx, curTx
	s.primed = true
	return rx, tx
}

// truncateHostname bounds the label to hostnameLimit runes, never cutting
// through a multi-byte rune.
func truncateHostname(name string) string {
	if r := []rune(name); len(r) > hostnameLimit {
		return string(r[:hostnameLimit])
	}
	return name
}

func netCounters() (rx, tx uint64, err error) {
	stats, err := net.IOCounters(false)
	if err != nil {
		return 0, 0, err
	}
	if len(stats) == 0 {
		return 0, 0, fmt.Errorf("metrics: no network counters")
	}
	return stats[0].BytesRecv, stats[0].BytesSent, nil
}

// cpuTemperature returns the hottest CPU/SoC sensor reading, or 0 when no
// sensor is readable. A missing sensor degrades the display, it must not
// fail the snapshot.
func cpuTemperature() float64 {
	sensors, err := host.SensorsTemperatures()
	if err != nil && len(sensors) == 0 {
		return 0
	}
	best := 0.0
	bestCPU := false
	for _, s := range sensors {
		key := strings.ToLower(s.SensorKey)
		isCPU := strings.Contains(key, "cpu") || strings.Contains(key, "soc") ||
			strings.Contains(key, "coretemp") || strings.Contains(key, "k10temp")
		switch {
		case isCPU && !bestCPU:
			best, bestCPU = s.Temperature, true
		case isCPU == bestCPU && s.Temperature > best:
			best = s.Temperature
		}
	}
	return best
}
