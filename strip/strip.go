package strip

import (
	"fmt"
	"sync"

	"lautenbacher.net/neostrip/color"
)

// Driver transfers a complete frame to the LEDs. The slice is reused by
// the caller and must not be retained after Display returns.
type Driver interface {
	Display(pixels []Pixel) error
}

// Strip is the pixel buffer in front of a Driver. Writes go to the
// buffer; Flush scales them by the overall brightness and hands them to
// the driver.
type Strip struct {
	mu         sync.Mutex
	pixels     []Pixel
	frame      []Pixel
	order      ChannelOrder
	brightness uint8
	driver     Driver
}

func New(ledsTotal int, order ChannelOrder, brightness uint8, driver Driver) (*Strip, error) {
	if ledsTotal <= 0 {
		return nil, fmt.Errorf("strip needs at least one led, got %d", ledsTotal)
	}
	if driver == nil {
		return nil, fmt.Errorf("strip needs a driver")
	}
	return &Strip{
		pixels:     make([]Pixel, ledsTotal),
		frame:      make([]Pixel, ledsTotal),
		order:      order,
		brightness: brightness,
		driver:     driver,
	}, nil
}

func (s *Strip) Len() int {
	return len(s.pixels)
}

func (s *Strip) Order() ChannelOrder {
	return s.order
}

// SetPixel sets the buffered value of the LED at index.
func (s *Strip) SetPixel(index int, p Pixel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pixels) {
		return fmt.Errorf("pixel index %d out of range [0,%d)", index, len(s.pixels))
	}
	s.pixels[index] = p
	return nil
}

// Fill sets every buffered LED to p.
func (s *Strip) Fill(p Pixel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = p
	}
}

// Flush sends the buffer to the driver.
func (s *Strip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pixels {
		s.frame[i] = p.Scale(s.brightness)
	}
	if err := s.driver.Display(s.frame); err != nil {
		return fmt.Errorf("flush %d pixels: %w", len(s.frame), err)
	}
	return nil
}

// PixelFor converts c for this strip: RGBW strips get the derived white
// channel, others plain RGB.
func (s *Strip) PixelFor(c color.Color) Pixel {
	if s.order.HasWhite() {
		r, g, b, w := c.RGBW()
		return Pixel{Red: r, Green: g, Blue: b, White: w}
	}
	r, g, b := c.RGB8()
	return Pixel{Red: r, Green: g, Blue: b}
}

// Show fills the whole strip with c and flushes.
func (s *Strip) Show(c color.Color) error {
	s.Fill(s.PixelFor(c))
	return s.Flush()
}
