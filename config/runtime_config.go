package config

import (
	"errors"
	"fmt"
)

// RuntimeConfig is the subset of the configuration that can be changed
// at runtime through the web api. Hardware and pairing settings are
// left out.
type RuntimeConfig struct {
	Fade       FadeConfig       `yaml:"Fade" json:"Fade"`
	Gesture    GestureConfig    `yaml:"Gesture" json:"Gesture"`
	Nightlight NightlightConfig `yaml:"Nightlight" json:"Nightlight"`
}

func (c *Config) RuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Fade:       c.Fade,
		Gesture:    c.Gesture,
		Nightlight: c.Nightlight,
	}
}

// ApplyRuntimeConfig replaces the runtime subset of c with r.
func (c *Config) ApplyRuntimeConfig(r RuntimeConfig) {
	c.Fade = r.Fade
	c.Gesture = r.Gesture
	c.Nightlight = r.Nightlight
}

func (r RuntimeConfig) validate() []error {
	var errs []error
	if r.Fade.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("Fade.TickInterval must be positive, got %s", r.Fade.TickInterval))
	}
	if r.Fade.TransitionLength <= 0 {
		errs = append(errs, fmt.Errorf("Fade.TransitionLength must be positive, got %s", r.Fade.TransitionLength))
	}
	if r.Fade.TransitionLength > 0 && r.Fade.TickInterval > r.Fade.TransitionLength {
		errs = append(errs, fmt.Errorf("Fade.TickInterval %s must not exceed Fade.TransitionLength %s", r.Fade.TickInterval, r.Fade.TransitionLength))
	} else if r.Fade.TickInterval > 0 && r.Fade.TransitionLength%r.Fade.TickInterval != 0 {
		// otherwise the fade steps over its endpoints and never turns
		errs = append(errs, fmt.Errorf("Fade.TransitionLength %s must be a multiple of Fade.TickInterval %s", r.Fade.TransitionLength, r.Fade.TickInterval))
	}

	g := r.Gesture
	if g.MinInterval < 0 {
		errs = append(errs, fmt.Errorf("Gesture.MinInterval must be non-negative, got %s", g.MinInterval))
	}
	if g.MaxInterval <= g.MinInterval {
		errs = append(errs, fmt.Errorf("Gesture.MinInterval %s must be less than Gesture.MaxInterval %s", g.MinInterval, g.MaxInterval))
	}
	if g.Count < 1 {
		errs = append(errs, fmt.Errorf("Gesture.Count must be at least 1, got %d", g.Count))
	}
	if g.FlashCount < 0 || g.FlashDelay < 0 {
		errs = append(errs, errors.New("Gesture.FlashCount and Gesture.FlashDelay must be non-negative"))
	}

	n := r.Nightlight
	if n.Latitude < -90 || n.Latitude > 90 {
		errs = append(errs, fmt.Errorf("Nightlight.Latitude must be between -90 and 90, got %g", n.Latitude))
	}
	if n.Longitude < -180 || n.Longitude > 180 {
		errs = append(errs, fmt.Errorf("Nightlight.Longitude must be between -180 and 180, got %g", n.Longitude))
	}
	if n.Hue < 0 || n.Hue >= 360 {
		errs = append(errs, fmt.Errorf("Nightlight.Hue must be between 0 and 360, got %g", n.Hue))
	}
	if n.Saturation < 0 || n.Saturation > 100 {
		errs = append(errs, fmt.Errorf("Nightlight.Saturation must be between 0 and 100, got %g", n.Saturation))
	}
	if n.Brightness < 0 || n.Brightness > 100 {
		errs = append(errs, fmt.Errorf("Nightlight.Brightness must be between 0 and 100, got %d", n.Brightness))
	}
	return errs
}
