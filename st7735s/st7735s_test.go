// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735s

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/atefalvi/pi-rack-hud/st7735s/rgb565"
)

func testDev(t *testing.T, opts *Opts) (*Dev, *spitest.Record) {
	t.Helper()
	record := &spitest.Record{}
	dev, err := New(record, &gpiotest.Pin{N: "DC"}, &gpiotest.Pin{N: "RST"}, &gpiotest.Pin{N: "BL"}, opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return dev, record
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name       string
		opts       Opts
		wantBounds image.Rectangle
	}{
		{
			name: "native",
			opts: func() Opts {
				o := DefaultOpts
				o.Rotation = Rotate0
				return o
			}(),
			wantBounds: image.Rect(0, 0, 80, 160),
		},
		{
			name:       "landscape",
			opts:       DefaultOpts,
			wantBounds: image.Rect(0, 0, 160, 80),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev, _ := testDev(t, &tc.opts)
			if diff := cmp.Diff(dev.Bounds(), tc.wantBounds); diff != "" {
				t.Errorf("Bounds() difference (-got +want):\n%s", diff)
			}
		})
	}

	if _, err := New(&spitest.Record{}, nil, &gpiotest.Pin{}, nil, &DefaultOpts); err == nil {
		t.Error("New() with nil dc pin succeeded, want error")
	}
}

func TestRotationOffsetSwap(t *testing.T) {
	opts := DefaultOpts
	opts.Rotation = Rotate90
	dev, _ := testDev(t, &opts)
	if dev.xOff != 0 || dev.yOff != 24 {
		t.Errorf("offsets = (%d, %d), want (0, 24)", dev.xOff, dev.yOff)
	}
}

func TestWritePixelCount(t *testing.T) {
	dev, _ := testDev(t, &DefaultOpts)

	// No window declared yet.
	if _, err := dev.Write(make([]byte, 8)); !errors.Is(err, ErrPixelCount) {
		t.Errorf("Write() without window = %v, want ErrPixelCount", err)
	}

	if err := dev.SetWindow(image.Rect(0, 0, 2, 2)); err != nil {
		t.Fatalf("SetWindow() failed: %v", err)
	}

	// 2x2 window expects exactly 8 bytes.
	if _, err := dev.Write(make([]byte, 6)); !errors.Is(err, ErrPixelCount) {
		t.Errorf("short Write() = %v, want ErrPixelCount", err)
	}
	if err := dev.SetWindow(image.Rect(0, 0, 2, 2)); err != nil {
		t.Fatalf("SetWindow() failed: %v", err)
	}
	if _, err := dev.Write(make([]byte, 10)); !errors.Is(err, ErrPixelCount) {
		t.Errorf("long Write() = %v, want ErrPixelCount", err)
	}
	if err := dev.SetWindow(image.Rect(0, 0, 2, 2)); err != nil {
		t.Fatalf("SetWindow() failed: %v", err)
	}
	if n, err := dev.Write(make([]byte, 8)); err != nil || n != 8 {
		t.Errorf("exact Write() = (%d, %v), want (8, nil)", n, err)
	}

	// The window is consumed; a second stream needs a new declaration.
	if _, err := dev.Write(make([]byte, 8)); !errors.Is(err, ErrPixelCount) {
		t.Errorf("Write() after consumed window = %v, want ErrPixelCount", err)
	}
}

func TestSetWindowBounds(t *testing.T) {
	dev, _ := testDev(t, &DefaultOpts)
	if err := dev.SetWindow(image.Rect(100, 0, 200, 10)); err == nil {
		t.Error("SetWindow() outside panel succeeded, want error")
	}
	if err := dev.SetWindow(image.Rect(5, 5, 5, 10)); err == nil {
		t.Error("SetWindow() with empty window succeeded, want error")
	}
}

func TestDrawRegion(t *testing.T) {
	dev, record := testDev(t, &DefaultOpts)

	src := rgb565.NewImage(image.Rect(0, 0, 160, 80))
	src.Fill(rgb565.New(255, 0, 0))

	if err := dev.DrawRegion(image.Rect(10, 20, 12, 22), src); err != nil {
		t.Fatalf("DrawRegion() failed: %v", err)
	}

	// Landscape at 270 degrees swaps the 24/0 RAM offsets to 0/24.
	want := []conntest.IO{
		{W: []byte{columnAddrSet}},
		{W: []byte{0x00, 10, 0x00, 11}},
		{W: []byte{rowAddrSet}},
		{W: []byte{0x00, 44, 0x00, 45}},
		{W: []byte{memoryWrite}},
		{W: []byte{0xF8, 0x00, 0xF8, 0x00, 0xF8, 0x00, 0xF8, 0x00}},
	}
	if diff := cmp.Diff(record.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("SPI operations difference (-got +want):\n%s", diff)
	}
}

func TestDrawClipped(t *testing.T) {
	dev, record := testDev(t, &DefaultOpts)

	src := rgb565.NewImage(image.Rect(0, 0, 4, 1))
	src.SetRGB565(2, 0, rgb565.New(0, 255, 0))
	src.SetRGB565(3, 0, rgb565.New(0, 0, 255))

	// Half the destination hangs off the left edge; the panel must receive
	// the second half of the source, not its first.
	if err := dev.Draw(image.Rect(-2, 0, 2, 1), src, image.Point{}); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}

	want := []conntest.IO{
		{W: []byte{columnAddrSet}},
		{W: []byte{0x00, 0, 0x00, 1}},
		{W: []byte{rowAddrSet}},
		{W: []byte{0x00, 24, 0x00, 24}},
		{W: []byte{memoryWrite}},
		{W: []byte{0x07, 0xE0, 0x00, 0x1F}},
	}
	if diff := cmp.Diff(record.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("SPI operations difference (-got +want):\n%s", diff)
	}
}

func TestDrawRegionOutsideSource(t *testing.T) {
	dev, _ := testDev(t, &DefaultOpts)
	src := rgb565.NewImage(image.Rect(0, 0, 4, 4))
	if err := dev.DrawRegion(image.Rect(0, 0, 8, 8), src); err == nil {
		t.Error("DrawRegion() outside source succeeded, want error")
	}
}

func TestClearStreamLength(t *testing.T) {
	dev, record := testDev(t, &DefaultOpts)
	if err := dev.Clear(rgb565.New(0, 0, 0)); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	// 160*80 pixels, two bytes each, chunked to the 4096 byte transfer
	// limit, plus the five window setup transfers.
	total := 0
	for _, op := range record.Ops[5:] {
		if len(op.W) > 4096 {
			t.Errorf("transfer of %d bytes exceeds chunk limit", len(op.W))
		}
		total += len(op.W)
	}
	if want := 160 * 80 * 2; total != want {
		t.Errorf("streamed %d bytes, want %d", total, want)
	}
}

func TestHalt(t *testing.T) {
	dev, record := testDev(t, &DefaultOpts)
	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	want := []conntest.IO{{W: []byte{displayOff}}}
	if diff := cmp.Diff(record.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("SPI operations difference (-got +want):\n%s", diff)
	}
}
