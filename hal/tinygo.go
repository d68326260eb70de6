//go:build tinygo && baremetal

package hal

import (
	"machine"

	"tinygo.org/x/drivers/ili9341"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	fb     Framebuffer
}

// New returns an RP2040 (Pico-class) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// Display: ILI9341 over SPI0, DC GP20, CS GP17, RST GP21.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.SPI0.Configure(machine.SPIConfig{
		SCK:       machine.GP18,
		SDO:       machine.GP19,
		SDI:       machine.GP16,
		Frequency: 40_000_000,
	})

	display := ili9341.NewSPI(machine.SPI0, machine.GP20, machine.GP17, machine.GP21)
	display.Configure(ili9341.Config{})

	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    &pinLED{pin: ledPin},
		fb:     newDeviceFramebuffer(display, 320, 240),
	}
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) LED() LED         { return h.led }
func (h *tinyGoHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }

type tinyGoDisplay struct {
	fb Framebuffer
}

func (d tinyGoDisplay) Framebuffer() Framebuffer { return d.fb }

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	l.uart.Write([]byte(s))
	l.uart.Write([]byte("\r\n"))
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	l.uart.Write(b)
	l.uart.Write([]byte("\r\n"))
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

// deviceFramebuffer keeps the pixel data in RAM and pushes the whole
// frame to the panel on Present.
type deviceFramebuffer struct {
	disp   *ili9341.Device
	width  int
	height int
	stride int
	buf    []byte
}

func newDeviceFramebuffer(disp *ili9341.Device, width, height int) *deviceFramebuffer {
	stride := width * 2
	return &deviceFramebuffer{
		disp:   disp,
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *deviceFramebuffer) Width() int          { return f.width }
func (f *deviceFramebuffer) Height() int         { return f.height }
func (f *deviceFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *deviceFramebuffer) StrideBytes() int    { return f.stride }
func (f *deviceFramebuffer) Buffer() []byte      { return f.buf }

func (f *deviceFramebuffer) ClearRGB(r, g, b uint8) {
	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *deviceFramebuffer) Present() error {
	return f.disp.DrawRGBBitmap8(0, 0, f.buf, int16(f.width), int16(f.height))
}
