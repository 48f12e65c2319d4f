package strip

import (
	"fmt"
	"strings"
)

// Pixel is the value of one LED. White is only sent to strips whose
// channel order has a white channel.
type Pixel struct {
	Red   uint8
	Green uint8
	Blue  uint8
	White uint8
}

// True if all components are zero, false otherwise
func (s Pixel) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0 && s.White == 0
}

// Scale returns the pixel with every channel multiplied by
// brightness/255.
func (s Pixel) Scale(brightness uint8) Pixel {
	if brightness == 255 {
		return s
	}
	return Pixel{
		Red:   scale(s.Red, brightness),
		Green: scale(s.Green, brightness),
		Blue:  scale(s.Blue, brightness),
		White: scale(s.White, brightness),
	}
}

func scale(v, brightness uint8) uint8 {
	return uint8((uint16(v)*uint16(brightness) + 127) / 255)
}

// ChannelOrder is the order in which a strip expects the colour bytes
// of each pixel on the wire.
type ChannelOrder string

const (
	RGB  ChannelOrder = "RGB"
	GRB  ChannelOrder = "GRB"
	BRG  ChannelOrder = "BRG"
	RGBW ChannelOrder = "RGBW"
	GRBW ChannelOrder = "GRBW"
)

// ParseChannelOrder accepts the order names case insensitively.
func ParseChannelOrder(name string) (ChannelOrder, error) {
	order := ChannelOrder(strings.ToUpper(strings.TrimSpace(name)))
	switch order {
	case RGB, GRB, BRG, RGBW, GRBW:
		return order, nil
	}
	return "", fmt.Errorf("unknown channel order %q (use RGB, GRB, BRG, RGBW or GRBW)", name)
}

// HasWhite reports whether the strip has a dedicated white channel.
func (o ChannelOrder) HasWhite() bool {
	return strings.HasSuffix(string(o), "W")
}

// BytesPerPixel is 4 for RGBW strips and 3 otherwise.
func (o ChannelOrder) BytesPerPixel() int {
	return len(o)
}

// Put writes the channels of p in wire order into dst, which must hold
// at least BytesPerPixel bytes.
func (o ChannelOrder) Put(dst []byte, p Pixel) {
	for i := 0; i < len(o); i++ {
		switch o[i] {
		case 'R':
			dst[i] = p.Red
		case 'G':
			dst[i] = p.Green
		case 'B':
			dst[i] = p.Blue
		case 'W':
			dst[i] = p.White
		}
	}
}
