// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735s

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type record struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

type fakeController []record

func (f *fakeController) sendCommand(cmd byte, data []byte) error {
	*f = append(*f, record{cmd: cmd, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeController) delay(d time.Duration) {
	cur := &(*f)[len(*f)-1]
	cur.delay += d
}

func TestInitDisplay(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts Opts
		want []record
	}{
		{
			name: "normal",
			opts: DefaultOpts,
			want: []record{
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
				{cmd: normalModeOn, delay: 10 * time.Millisecond},
				{cmd: displayOn, delay: 100 * time.Millisecond},
			},
		},
		{
			name: "inverted",
			opts: func() Opts {
				o := DefaultOpts
				o.Invert = true
				return o
			}(),
			want: []record{
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
				{cmd: inversionOn, delay: 10 * time.Millisecond},
				{cmd: displayOn, delay: 100 * time.Millisecond},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got fakeController

			if err := initDisplay(&got, &tc.opts); err != nil {
				t.Fatalf("initDisplay() failed: %v", err)
			}

			if diff := cmp.Diff([]record(got), tc.want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
				t.Errorf("initDisplay() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestMadctlFor(t *testing.T) {
	for _, tc := range []struct {
		rotation Rotation
		want     byte
	}{
		{Rotate0, madctlMX | madctlMY},
		{Rotate90, madctlMY | madctlMV},
		{Rotate180, 0x00},
		{Rotate270, madctlMX | madctlMV},
	} {
		if got := madctlFor(tc.rotation); got != tc.want {
			t.Errorf("madctlFor(%s) = %#02x, want %#02x", tc.rotation, got, tc.want)
		}
	}
}

func TestSetAddressWindow(t *testing.T) {
	for _, tc := range []struct {
		name               string
		x0, y0, x1, y1     int
		xOff, yOff         int
		wantCaset, wantRas []byte
	}{
		{
			name: "full panel with RAM offset",
			x0:   0, y0: 0, x1: 79, y1: 159,
			xOff: 24, yOff: 0,
			wantCaset: []byte{0x00, 24, 0x00, 103},
			wantRas:   []byte{0x00, 0, 0x00, 159},
		},
		{
			name: "rotated offsets",
			x0:   0, y0: 0, x1: 159, y1: 79,
			xOff: 0, yOff: 24,
			wantCaset: []byte{0x00, 0, 0x00, 159},
			wantRas:   []byte{0x00, 24, 0x00, 103},
		},
		{
			name: "sub-window",
			x0:   10, y0: 20, x1: 29, y1: 39,
			xOff: 24, yOff: 0,
			wantCaset: []byte{0x00, 34, 0x00, 53},
			wantRas:   []byte{0x00, 20, 0x00, 39},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got fakeController

			if err := setAddressWindow(&got, tc.x0, tc.y0, tc.x1, tc.y1, tc.xOff, tc.yOff); err != nil {
				t.Fatalf("setAddressWindow() failed: %v", err)
			}

			want := []record{
				{cmd: columnAddrSet, data: tc.wantCaset},
				{cmd: rowAddrSet, data: tc.wantRas},
				{cmd: memoryWrite},
			}
			if diff := cmp.Diff([]record(got), want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{})); diff != "" {
				t.Errorf("setAddressWindow() difference (-got +want):\n%s", diff)
			}
		})
	}
}
