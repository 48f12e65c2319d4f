package color

// White channel heuristics tuned against the HomeKit "soft white" and
// "cool white" presets.
const (
	coolWhiteMaxSaturation = 40
	coolWhiteMinHue        = 200
	warmWhiteMaxHue        = 31
	warmWhiteMaxSaturation = 80
)

// HSVToRGBW converts hue (0-360), saturation and value (0-100) into four
// byte channels for RGBW strips.
//
// The white channel is driven with the full value when the request looks
// like a cool or warm white. The RGB channels are computed from the
// unmodified HSV, so white is added on top of the chroma rather than
// replacing part of it. A saturation of 0 or below gives RGB 0,0,0 and
// leaves lighting to the white channel.
func HSVToRGBW(hue, saturation, value float64) (red, green, blue, white uint8) {
	if isCoolWhite(hue, saturation) || isWarmWhite(hue, saturation) {
		white = toByte(clamp(value, 0, 100) / 100 * 255)
	}
	if saturation <= 0 {
		return 0, 0, 0, white
	}
	r, g, b := hsvToRGB(hue, saturation, value)
	return toByte(r), toByte(g), toByte(b), white
}

// RGBW converts c with HSVToRGBW.
func (c Color) RGBW() (red, green, blue, white uint8) {
	return HSVToRGBW(c.hue, c.saturation, c.brightness)
}

func isCoolWhite(hue, saturation float64) bool {
	return saturation < coolWhiteMaxSaturation && hue > coolWhiteMinHue
}

func isWarmWhite(hue, saturation float64) bool {
	return hue < warmWhiteMaxHue && saturation < warmWhiteMaxSaturation
}

