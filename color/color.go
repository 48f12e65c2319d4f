package color

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color holds a colour in both RGB (0-255 per channel) and HSV (hue
// 0-360, saturation and brightness 0-100) form. Every mutator keeps the
// two representations in sync. Color is a value type; assigning it
// copies it.
type Color struct {
	red        float64
	green      float64
	blue       float64
	hue        float64
	saturation float64
	brightness float64
}

func FromRGB(red, green, blue float64) Color {
	var c Color
	c.SetRGB(red, green, blue)
	return c
}

func FromHSV(hue, saturation, brightness float64) Color {
	var c Color
	c.SetHSV(hue, saturation, brightness)
	return c
}

// FromColor returns an independent copy of other.
func FromColor(other Color) Color {
	return other
}

// FromPacked builds a Color from a 24 bit 0xRRGGBB value. Bits above
// the lower 24 are ignored.
func FromPacked(value uint32) Color {
	return FromRGB(float64(value>>16&0xFF), float64(value>>8&0xFF), float64(value&0xFF))
}

func Black() Color { return FromRGB(0, 0, 0) }
func White() Color { return FromRGB(255, 255, 255) }
func Red() Color   { return FromRGB(255, 0, 0) }
func Green() Color { return FromRGB(0, 255, 0) }
func Blue() Color  { return FromRGB(0, 0, 255) }

// SetRGB stores the channels as given and recomputes HSV.
func (c *Color) SetRGB(red, green, blue float64) {
	c.red, c.green, c.blue = red, green, blue
	c.hue, c.saturation, c.brightness = rgbToHSV(red, green, blue)
}

// SetHSV stores hue, saturation and brightness as given and recomputes RGB.
func (c *Color) SetHSV(hue, saturation, brightness float64) {
	c.hue, c.saturation, c.brightness = hue, saturation, brightness
	c.updateRGB()
}

func (c *Color) SetHue(hue float64) {
	c.hue = hue
	c.updateRGB()
}

// AdjustHue adds delta to the stored hue. The stored value is not
// wrapped; the conversion to RGB takes it modulo 360.
func (c *Color) AdjustHue(delta float64) {
	c.hue += delta
	c.updateRGB()
}

func (c *Color) SetSaturation(saturation float64) {
	c.saturation = saturation
	c.updateRGB()
}

// AdjustSaturation adds delta to the stored saturation without clamping.
func (c *Color) AdjustSaturation(delta float64) {
	c.saturation += delta
	c.updateRGB()
}

func (c *Color) SetBrightness(brightness float64) {
	c.brightness = brightness
	c.updateRGB()
}

func (c Color) RGB() (red, green, blue float64) {
	return c.red, c.green, c.blue
}

// RGB8 returns the channels rounded and clamped to bytes.
func (c Color) RGB8() (red, green, blue uint8) {
	return toByte(c.red), toByte(c.green), toByte(c.blue)
}

func (c Color) HSV() (hue, saturation, brightness float64) {
	return c.hue, c.saturation, c.brightness
}

func (c Color) Hue() float64        { return c.hue }
func (c Color) Saturation() float64 { return c.saturation }
func (c Color) Brightness() float64 { return c.brightness }

// Packed returns the colour as 0xRRGGBB.
func (c Color) Packed() uint32 {
	r, g, b := c.RGB8()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Equal reports whether hue and saturation match after rounding both to
// two decimals. Brightness is not compared: during a fade it is constant
// and only the position between the endpoints matters.
func (c Color) Equal(other Color) bool {
	return round2(c.hue) == round2(other.hue) && round2(c.saturation) == round2(other.saturation)
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%.0f,%.0f,%.0f) hsv(%.2f,%.2f,%.2f)",
		c.red, c.green, c.blue, c.hue, c.saturation, c.brightness)
}

func (c *Color) updateRGB() {
	c.red, c.green, c.blue = hsvToRGB(c.hue, c.saturation, c.brightness)
}

// rgbToHSV converts 0-255 channels to hue 0-360, saturation and value 0-100.
func rgbToHSV(red, green, blue float64) (float64, float64, float64) {
	h, s, v := colorful.Color{R: red / 255, G: green / 255, B: blue / 255}.Hsv()
	return h, s * 100, v * 100
}

// hsvToRGB converts hue (any value, taken modulo 360), saturation and
// value (clamped to 0-100) to 0-255 channels.
func hsvToRGB(hue, saturation, brightness float64) (float64, float64, float64) {
	c := colorful.Hsv(normalizeHue(hue), clamp(saturation, 0, 100)/100, clamp(brightness, 0, 100)/100)
	return c.R * 255, c.G * 255, c.B * 255
}

func normalizeHue(hue float64) float64 {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	// a tiny negative remainder can round up to exactly 360
	if h >= 360 {
		h = 0
	}
	return h
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toByte(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}
