package term

import (
	"image/color"
	"testing"

	"ember/hal"
)

// memFramebuffer is an in-memory RGB565 framebuffer for display tests.
type memFramebuffer struct {
	w, h      int
	buf       []byte
	presented int
}

func newMemFramebuffer(w, h int) *memFramebuffer {
	return &memFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *memFramebuffer) Width() int              { return f.w }
func (f *memFramebuffer) Height() int             { return f.h }
func (f *memFramebuffer) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *memFramebuffer) StrideBytes() int        { return f.w * 2 }
func (f *memFramebuffer) Buffer() []byte          { return f.buf }
func (f *memFramebuffer) ClearRGB(r, g, b uint8)  {}
func (f *memFramebuffer) Present() error {
	f.presented++
	return nil
}

func (f *memFramebuffer) pixel(x, y int) uint16 {
	off := y*f.w*2 + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

func TestSetPixelWritesRGB565(t *testing.T) {
	fb := newMemFramebuffer(8, 8)
	d := newFBDisplay(fb)

	d.SetPixel(3, 2, color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF})
	if got, want := fb.pixel(3, 2), rgb565From888(0xFF, 0, 0); got != want {
		t.Fatalf("expected pixel %#04x, got %#04x", want, got)
	}

	// Out-of-bounds writes are dropped, not wrapped.
	d.SetPixel(-1, 0, color.RGBA{R: 0xFF})
	d.SetPixel(8, 0, color.RGBA{R: 0xFF})
	d.SetPixel(0, 8, color.RGBA{R: 0xFF})
	if got := fb.pixel(0, 0); got != 0 {
		t.Fatalf("expected origin untouched, got %#04x", got)
	}
	if got := fb.pixel(7, 0); got != 0 {
		t.Fatalf("expected row end untouched, got %#04x", got)
	}
}

func TestFillRectangleClampsToBounds(t *testing.T) {
	fb := newMemFramebuffer(4, 4)
	d := newFBDisplay(fb)

	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF}
	if err := d.FillRectangle(2, 2, 10, 10, white); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := rgb565From888(0xFF, 0xFF, 0xFF)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			inside := x >= 2 && y >= 2
			got := fb.pixel(x, y)
			if inside && got != want {
				t.Fatalf("expected (%d,%d) filled, got %#04x", x, y, got)
			}
			if !inside && got != 0 {
				t.Fatalf("expected (%d,%d) untouched, got %#04x", x, y, got)
			}
		}
	}
}

func TestScrollUpShiftsAndClears(t *testing.T) {
	fb := newMemFramebuffer(4, 3)
	d := newFBDisplay(fb)

	rowColor := []color.RGBA{
		{R: 0xFF},
		{G: 0xFF},
		{B: 0xFF},
	}
	for y, c := range rowColor {
		for x := 0; x < 4; x++ {
			d.SetPixel(int16(x), int16(y), c)
		}
	}

	if err := d.ScrollUp(1, color.RGBA{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if got, want := fb.pixel(0, 0), rgb565From888(0, 0xFF, 0); got != want {
		t.Fatalf("expected row 1 shifted to row 0, got %#04x", got)
	}
	if got, want := fb.pixel(0, 1), rgb565From888(0, 0, 0xFF); got != want {
		t.Fatalf("expected row 2 shifted to row 1, got %#04x", got)
	}
	if got := fb.pixel(0, 2); got != 0 {
		t.Fatalf("expected exposed bottom row cleared, got %#04x", got)
	}
}

func TestDisplayPresents(t *testing.T) {
	fb := newMemFramebuffer(2, 2)
	d := newFBDisplay(fb)

	if err := d.Display(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if fb.presented != 1 {
		t.Fatalf("expected one present, got %d", fb.presented)
	}

	if x, y := d.Size(); x != 2 || y != 2 {
		t.Fatalf("expected size 2x2, got %dx%d", x, y)
	}
}
