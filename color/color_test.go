package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGBRoundTrip(t *testing.T) {
	for r := 0; r <= 255; r += 15 {
		for g := 0; g <= 255; g += 15 {
			for b := 0; b <= 255; b += 15 {
				h, s, v := FromRGB(float64(r), float64(g), float64(b)).HSV()
				gotR, gotG, gotB := FromHSV(h, s, v).RGB8()
				assert.InDelta(t, r, int(gotR), 1, "red of (%d,%d,%d)", r, g, b)
				assert.InDelta(t, g, int(gotG), 1, "green of (%d,%d,%d)", r, g, b)
				assert.InDelta(t, b, int(gotB), 1, "blue of (%d,%d,%d)", r, g, b)
			}
		}
	}
}

func TestNamedColors(t *testing.T) {
	tests := []struct {
		name    string
		color   Color
		hue     float64
		sat     float64
		bright  float64
		rgbWant [3]uint8
	}{
		{"black", Black(), 0, 0, 0, [3]uint8{0, 0, 0}},
		{"white", White(), 0, 0, 100, [3]uint8{255, 255, 255}},
		{"red", Red(), 0, 100, 100, [3]uint8{255, 0, 0}},
		{"green", Green(), 120, 100, 100, [3]uint8{0, 255, 0}},
		{"blue", Blue(), 240, 100, 100, [3]uint8{0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := tt.color.HSV()
			assert.InDelta(t, tt.hue, h, 1e-9)
			assert.InDelta(t, tt.sat, s, 1e-9)
			assert.InDelta(t, tt.bright, v, 1e-9)
			r, g, b := tt.color.RGB8()
			assert.Equal(t, tt.rgbWant, [3]uint8{r, g, b})
		})
	}
}

func TestFromPacked(t *testing.T) {
	c := FromPacked(0xAB_FF8000)
	r, g, b := c.RGB8()
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(128), g)
	assert.Equal(t, uint8(0), b)
	assert.Equal(t, uint32(0xFF8000), c.Packed())
}

func TestFromColorIsIndependentCopy(t *testing.T) {
	orig := FromHSV(10, 50, 80)
	cp := FromColor(orig)
	cp.SetHue(200)

	assert.Equal(t, 10.0, orig.Hue(), "changing the copy must not touch the original")
	assert.Equal(t, 200.0, cp.Hue())
}

func TestSetHueIsIdempotent(t *testing.T) {
	c := FromHSV(30, 70, 90)
	c.SetHue(123.4)
	r1, g1, b1 := c.RGB()
	c.SetHue(123.4)
	r2, g2, b2 := c.RGB()

	assert.Equal(t, r1, r2)
	assert.Equal(t, g1, g2)
	assert.Equal(t, b1, b2)
}

func TestAdjustHueWrapsAtConversion(t *testing.T) {
	c := FromHSV(350, 100, 100)
	c.AdjustHue(20)
	assert.Equal(t, 370.0, c.Hue(), "stored hue is not wrapped")
	assert.Equal(t, FromHSV(10, 100, 100).Packed(), c.Packed())

	c = FromHSV(10, 100, 100)
	c.AdjustHue(-20)
	assert.Equal(t, -10.0, c.Hue())
	assert.Equal(t, FromHSV(350, 100, 100).Packed(), c.Packed())

	// -1e-15 mod 360 lands on 360.0 in float64 and must still be red
	c = FromHSV(0, 100, 100)
	c.AdjustHue(-1e-15)
	assert.Equal(t, uint32(0xFF0000), c.Packed())
}

func TestAdjustSaturationClampsAtConversion(t *testing.T) {
	c := FromHSV(0, 90, 100)
	c.AdjustSaturation(30)
	assert.Equal(t, 120.0, c.Saturation())
	assert.Equal(t, uint32(0xFF0000), c.Packed())
}

func TestSetBrightnessKeepsHue(t *testing.T) {
	c := FromHSV(240, 100, 100)
	c.SetBrightness(50)
	r, g, b := c.RGB8()
	assert.Equal(t, [3]uint8{0, 0, 128}, [3]uint8{r, g, b})
	assert.Equal(t, 240.0, c.Hue())
}

func TestEqual(t *testing.T) {
	assert.True(t, FromHSV(10, 50, 77).Equal(FromHSV(10.001, 50.001, 90)), "brightness ignored, two decimals")
	assert.False(t, FromHSV(10, 50, 77).Equal(FromHSV(10.01, 50, 77)))
	assert.False(t, FromHSV(10, 50, 77).Equal(FromHSV(10, 50.01, 77)))
	assert.True(t, FromHSV(-0.000001, 100, 100).Equal(FromHSV(0, 100, 100)))
}

func TestHSVToRGBW(t *testing.T) {
	tests := []struct {
		name       string
		h, s, v    float64
		r, g, b, w uint8
	}{
		{"white request uses warm rule", 0, 0, 100, 0, 0, 0, 255},
		{"saturated red has no white", 0, 100, 100, 255, 0, 0, 0},
		{"cool white keeps chroma", 220, 20, 100, 204, 221, 255, 255},
		{"warm white at half value", 20, 50, 50, 128, 85, 64, 128},
		{"green has no white", 120, 50, 100, 128, 255, 128, 0},
		{"off", 0, 0, 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, w := HSVToRGBW(tt.h, tt.s, tt.v)
			assert.Equal(t, tt.w, w, "white")
			assert.InDelta(t, tt.r, r, 1, "red")
			assert.InDelta(t, tt.g, g, 1, "green")
			assert.InDelta(t, tt.b, b, 1, "blue")
		})
	}
}

func TestColorRGBW(t *testing.T) {
	r, g, b, w := FromHSV(230, 10, 100).RGBW()
	assert.Equal(t, uint8(255), w)
	assert.Equal(t, uint8(255), b)
	assert.Greater(t, r, uint8(200))
	assert.Greater(t, g, uint8(200))
}
