// Copyright 2025 The pi-rack-hud Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735s

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/atefalvi/pi-rack-hud/st7735s/rgb565"
)

// Rotation is the panel orientation in 90 degree steps, clockwise.
type Rotation int

// Valid Rotation.
const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0"
	case Rotate90:
		return "90"
	case Rotate180:
		return "180"
	case Rotate270:
		return "270"
	}
	return fmt.Sprintf("Rotation(%d)", int(r))
}

// Set sets the Rotation to a value represented by the string s. Set
// implements the flag.Value interface.
func (r *Rotation) Set(s string) error {
	switch s {
	case "0":
		*r = Rotate0
	case "90":
		*r = Rotate90
	case "180":
		*r = Rotate180
	case "270":
		*r = Rotate270
	default:
		return fmt.Errorf("unknown rotation %q: expected 0, 90, 180 or 270", s)
	}
	return nil
}

// swapped reports whether logical width and height are exchanged.
func (r Rotation) swapped() bool {
	return r == Rotate90 || r == Rotate270
}

// Opts is the panel configuration. Offsets and dimensions are given in the
// native (unrotated) orientation; panel batches vary in how the visible
// glass sits inside the controller RAM, so these are configuration rather
// than constants.
type Opts struct {
	// Width and Height are the native panel dimensions in pixels.
	Width  int
	Height int
	// Rotation selects the orientation via the memory access control bits.
	Rotation Rotation
	// XOffset and YOffset position the visible glass inside the controller
	// RAM at Rotate0. They are exchanged automatically for Rotate90 and
	// Rotate270.
	XOffset int
	YOffset int
	// Invert enables the panel's color inversion mode.
	Invert bool
	// Freq is the SPI clock. Defaults to 24MHz.
	Freq physic.Frequency
}

// DefaultOpts matches the common 0.96" 80x160 IPS bar wired per the
// reference schematic.
var DefaultOpts = Opts{
	Width:    80,
	Height:   160,
	Rotation: Rotate270,
	XOffset:  24,
	YOffset:  0,
	Freq:     24 * physic.MegaHertz,
}

// ErrPixelCount is returned by Write when the pixel stream does not match
// the declared address window. Sending a mismatched stream desynchronizes
// the controller, so the driver refuses rather than corrupting subsequent
// frames. It indicates a programming error in the caller.
var ErrPixelCount = errors.New("st7735s: pixel stream does not match declared window")

// Dev is an open handle to an ST7735S panel.
type Dev struct {
	// Communication.
	c         conn.Conn
	dc        gpio.PinOut
	rst       gpio.PinOut
	bl        gpio.PinOut
	maxTxSize int

	opts Opts

	// Logical geometry after rotation.
	rect       image.Rectangle
	xOff, yOff int

	// Bytes the open address window still expects. Zero when no window is
	// open.
	pending int
}

// New opens an ST7735S on the given SPI port.
//
// dc is the data/command select line, rst the hardware reset line. bl is
// the backlight enable line and may be nil if the backlight is hardwired.
// The returned device is not initialized; call Init before drawing.
func New(p spi.Port, dc, rst, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("st7735s: dc pin is required")
	}
	if rst == nil || rst == gpio.INVALID {
		return nil, errors.New("st7735s: rst pin is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("st7735s: invalid dimensions %dx%d", opts.Width, opts.Height)
	}
	freq := opts.Freq
	if freq == 0 {
		freq = DefaultOpts.Freq
	}
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735s: %v", err)
	}
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize == 0 {
		maxTxSize = 4096 // Conservative default matching the kernel spidev limit.
	}
	d := &Dev{
		c:         c,
		dc:        dc,
		rst:       rst,
		bl:        bl,
		maxTxSize: maxTxSize,
		opts:      *opts,
	}
	w, h := opts.Width, opts.Height
	d.xOff, d.yOff = opts.XOffset, opts.YOffset
	if opts.Rotation.swapped() {
		w, h = h, w
		d.xOff, d.yOff = d.yOff, d.xOff
	}
	d.rect = image.Rect(0, 0, w, h)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7735s.Dev{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. The rectangle is in logical
// (post-rotation) coordinates; Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Init pulses the hardware reset, replays the power-up sequence, applies
// the configured orientation and clears the screen.
//
// A failure leaves the controller state unknown; the caller must not draw
// until a later Init succeeds.
func (d *Dev) Init() error {
	d.pending = 0
	if err := d.pulseReset(); err != nil {
		return fmt.Errorf("st7735s: reset: %v", err)
	}
	if err := d.SetBacklight(true); err != nil {
		return fmt.Errorf("st7735s: backlight: %v", err)
	}
	if err := initDisplay(d, &d.opts); err != nil {
		return fmt.Errorf("st7735s: init sequence: %v", err)
	}
	if err := setOrientation(d, d.opts.Rotation); err != nil {
		return fmt.Errorf("st7735s: orientation: %v", err)
	}
	return d.Clear(0)
}

// Reinit re-runs the full initialization. Used to recover from a wedged
// controller after repeated transfer failures.
func (d *Dev) Reinit() error {
	return d.Init()
}

// SetBacklight switches the backlight enable line. No-op when the line is
// not wired.
func (d *Dev) SetBacklight(on bool) error {
	if d.bl == nil {
		return nil
	}
	return d.bl.Out(gpio.Level(on))
}

// SetWindow declares the address window for the next Write in logical
// coordinates and primes the controller for a pixel stream. The window
// bounds are inclusive of Min and exclusive of Max, stdlib image
// convention; the controller receives inclusive bounds.
func (d *Dev) SetWindow(r image.Rectangle) error {
	r = r.Canon()
	if !r.In(d.rect) {
		return fmt.Errorf("st7735s: window %v outside panel %v", r, d.rect)
	}
	if r.Empty() {
		return errors.New("st7735s: empty window")
	}
	if err := setAddressWindow(d, r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, d.xOff, d.yOff); err != nil {
		return err
	}
	d.pending = r.Dx() * r.Dy() * 2
	return nil
}

// Write streams packed big-endian RGB565 pixels into the window declared
// by SetWindow. The stream length must match the window exactly; anything
// else returns ErrPixelCount without touching the bus.
func (d *Dev) Write(pix []byte) (int, error) {
	if d.pending == 0 {
		return 0, fmt.Errorf("%w: no open window", ErrPixelCount)
	}
	if len(pix) != d.pending {
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrPixelCount, d.pending, len(pix))
	}
	d.pending = 0
	if err := d.sendData(pix); err != nil {
		return 0, err
	}
	return len(pix), nil
}

// DrawRegion pushes the rectangle r of src to the same rectangle on the
// panel. src must cover r.
func (d *Dev) DrawRegion(r image.Rectangle, src *rgb565.Image) error {
	r = r.Canon()
	if !r.In(src.Bounds()) {
		return fmt.Errorf("st7735s: region %v outside source %v", r, src.Bounds())
	}
	if err := d.SetWindow(r); err != nil {
		return err
	}
	if r == src.Bounds() && src.Stride == r.Dx()*2 {
		_, err := d.Write(src.Pix)
		return err
	}
	buf := make([]byte, 0, r.Dx()*r.Dy()*2)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		buf = append(buf, src.Row(y, r.Min.X, r.Max.X)...)
	}
	_, err := d.Write(buf)
	return err
}

// Draw implements display.Drawer. It draws synchronously; once this
// function returns the panel is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	clipped := r.Intersect(d.rect)
	if clipped.Empty() {
		return nil
	}
	// Clipping the destination must skip the same amount of source.
	sp = sp.Add(clipped.Min.Sub(r.Min))
	r = clipped
	if img, ok := src.(*rgb565.Image); ok && sp == img.Bounds().Min && r == img.Bounds() {
		// Exact size and encoding: fast path.
		return d.DrawRegion(r, img)
	}
	buf := rgb565.NewImage(r)
	draw.Draw(buf, r, src, sp, draw.Src)
	return d.DrawRegion(r, buf)
}

// Clear fills the whole panel with a solid color.
func (d *Dev) Clear(c rgb565.Color) error {
	if err := d.SetWindow(d.rect); err != nil {
		return err
	}
	buf := make([]byte, d.pending)
	hi, lo := byte(c>>8), byte(c)
	for o := 0; o < len(buf); o += 2 {
		buf[o] = hi
		buf[o+1] = lo
	}
	_, err := d.Write(buf)
	return err
}

// Halt implements conn.Resource. It blanks the panel and switches the
// backlight off.
func (d *Dev) Halt() error {
	if err := d.sendCommand(displayOff, nil); err != nil {
		return err
	}
	return d.SetBacklight(false)
}

// pulseReset performs the hardware reset timing required by the
// controller.
func (d *Dev) pulseReset() error {
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := d.rst.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)
	return nil
}

// sendCommand drives the data/command line low for the opcode byte and
// high for its parameter bytes. This single line is how the controller
// tells opcodes from data on the shared wire.
func (d *Dev) sendCommand(cmd byte, data []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.sendData(data)
}

// sendData streams bytes with the data/command line high, chunked to the
// transport's maximum transfer size.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := len(data)
		if n > d.maxTxSize {
			n = d.maxTxSize
		}
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (d *Dev) delay(dur time.Duration) {
	time.Sleep(dur)
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
var _ controller = &Dev{}
