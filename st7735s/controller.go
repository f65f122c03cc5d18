// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735s

import (
	"time"
)

// Commands
const (
	swReset        byte = 0x01
	sleepOut       byte = 0x11
	normalModeOn   byte = 0x20
	inversionOn    byte = 0x21
	displayOff     byte = 0x28
	displayOn      byte = 0x29
	columnAddrSet  byte = 0x2A
	rowAddrSet     byte = 0x2B
	memoryWrite    byte = 0x2C
	memAccessCtrl  byte = 0x36
	pixelFormatSet byte = 0x3A
	frameRateCtrl1 byte = 0xB1
	frameRateCtrl2 byte = 0xB2
	frameRateCtrl3 byte = 0xB3
	inversionCtrl  byte = 0xB4
	powerCtrl1     byte = 0xC0
	powerCtrl2     byte = 0xC1
	powerCtrl3     byte = 0xC2
	powerCtrl4     byte = 0xC3
	powerCtrl5     byte = 0xC4
	vcomCtrl1      byte = 0xC5
)

// Memory access control (orientation) bits.
const (
	madctlMY  byte = 0x80 // row address order
	madctlMX  byte = 0x40 // column address order
	madctlMV  byte = 0x20 // row/column exchange
	madctlRGB byte = 0x00 // RGB channel order
)

// 16-bit RGB565 pixel format.
const pixelFormat16bit byte = 0x05

// controller is the register-level protocol surface. The physical
// implementation lives on Dev; tests substitute a recording fake.
type controller interface {
	sendCommand(cmd byte, data []byte) error
	delay(d time.Duration)
}

// initStep is one entry of the power-up sequence: a command, its
// parameters, and the settle time the controller needs afterwards.
type initStep struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

// initSequence returns the power-up sequence for the ST7735S. The delays
// are mandatory; the controller is not ready immediately after the reset
// and sleep-out commands and issuing further commands early leaves the
// panel blank or corrupted.
func initSequence(invert bool) []initStep {
	displayMode := normalModeOn
	if invert {
		displayMode = inversionOn
	}
	return []initStep{
		{cmd: swReset, delay: 150 * time.Millisecond},
		{cmd: sleepOut, delay: 500 * time.Millisecond},
		{cmd: frameRateCtrl1, data: []byte{0x01, 0x2C, 0x2D}},
		{cmd: frameRateCtrl2, data: []byte{0x01, 0x2C, 0x2D}},
		{cmd: frameRateCtrl3, data: []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}},
		{cmd: inversionCtrl, data: []byte{0x07}},
		{cmd: powerCtrl1, data: []byte{0xA2, 0x02, 0x84}},
		{cmd: powerCtrl2, data: []byte{0xC5}},
		{cmd: powerCtrl3, data: []byte{0x0A, 0x00}},
		{cmd: powerCtrl4, data: []byte{0x8A, 0x2A}},
		{cmd: powerCtrl5, data: []byte{0x8A, 0xEE}},
		{cmd: vcomCtrl1, data: []byte{0x0E}},
		{cmd: pixelFormatSet, data: []byte{pixelFormat16bit}},
		{cmd: displayMode, delay: 10 * time.Millisecond},
		{cmd: displayOn, delay: 100 * time.Millisecond},
	}
}

func initDisplay(ctrl controller, opts *Opts) error {
	for _, s := range initSequence(opts.Invert) {
		if err := ctrl.sendCommand(s.cmd, s.data); err != nil {
			return err
		}
		if s.delay > 0 {
			ctrl.delay(s.delay)
		}
	}
	return nil
}

// madctlFor maps a rotation to the controller's orientation bits. The
// values match the reference 0.96" 80x160 panel wiring; 180 degrees is the
// raw panel orientation.
func madctlFor(r Rotation) byte {
	switch r {
	case Rotate0:
		return madctlRGB | madctlMX | madctlMY
	case Rotate90:
		return madctlRGB | madctlMY | madctlMV
	case Rotate270:
		return madctlRGB | madctlMX | madctlMV
	default: // Rotate180
		return madctlRGB
	}
}

func setOrientation(ctrl controller, r Rotation) error {
	return ctrl.sendCommand(memAccessCtrl, []byte{madctlFor(r)})
}

// setAddressWindow declares the inclusive drawing window [x0,x1]x[y0,y1] in
// logical coordinates and primes the controller for a memory write. The
// offsets translate to controller RAM coordinates; the RAM is larger than
// the visible glass.
func setAddressWindow(ctrl controller, x0, y0, x1, y1, xOff, yOff int) error {
	x0 += xOff
	x1 += xOff
	y0 += yOff
	y1 += yOff
	if err := ctrl.sendCommand(columnAddrSet, []byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)}); err != nil {
		return err
	}
	if err := ctrl.sendCommand(rowAddrSet, []byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)}); err != nil {
		return err
	}
	return ctrl.sendCommand(memoryWrite, nil)
}
