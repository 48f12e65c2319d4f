package light

import "lautenbacher.net/neostrip/color"

// ColorSet holds the two fade endpoints and the colour currently shown
// between them. Primary is the latest colour picked by the user and
// secondary the one before. All getters return copies.
type ColorSet struct {
	primary   color.Color
	secondary color.Color
	current   color.Color
}

func NewColorSet(primary, secondary, current color.Color) *ColorSet {
	return &ColorSet{primary: primary, secondary: secondary, current: current}
}

// InsertNewColor makes the old primary the secondary and c the primary.
func (s *ColorSet) InsertNewColor(c color.Color) {
	s.secondary = s.primary
	s.primary = c
}

func (s *ColorSet) Primary() color.Color   { return s.primary }
func (s *ColorSet) Secondary() color.Color { return s.secondary }
func (s *ColorSet) Current() color.Color   { return s.current }

func (s *ColorSet) SetPrimary(c color.Color)   { s.primary = c }
func (s *ColorSet) SetSecondary(c color.Color) { s.secondary = c }
func (s *ColorSet) SetCurrent(c color.Color)   { s.current = c }

// ResetCurrent restarts the fade from the primary colour.
func (s *ColorSet) ResetCurrent() {
	s.current = s.primary
}

// SetPrimarySaturation changes the saturation of the primary colour only.
func (s *ColorSet) SetPrimarySaturation(saturation float64) {
	s.primary.SetSaturation(saturation)
}

// SetBrightness changes the brightness of both endpoints. The current
// colour keeps its brightness until it is reset.
func (s *ColorSet) SetBrightness(brightness float64) {
	s.primary.SetBrightness(brightness)
	s.secondary.SetBrightness(brightness)
}

// Advance moves the current colour by the given hue and saturation steps.
func (s *ColorSet) Advance(hueStep, saturationStep float64) {
	s.current.AdjustHue(hueStep)
	s.current.AdjustSaturation(saturationStep)
}
