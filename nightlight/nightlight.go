// Package nightlight switches the light on at sunset.
package nightlight

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/schedule"
)

// Light is the part of the accessory the nightlight drives.
type Light interface {
	Power() bool
	SetPower(on bool) error
	SetHue(hue float64) error
	SetSaturation(saturation float64)
	SetBrightness(brightness float64) error
}

// days searched for the next sunset, enough to get out of a polar day
const searchDays = 190

type Nightlight struct {
	conf  config.NightlightConfig
	light Light
	sched schedule.Scheduler

	mu      sync.Mutex
	cancel  schedule.Cancel
	stopped bool
}

func New(conf config.NightlightConfig, light Light, sched schedule.Scheduler) *Nightlight {
	return &Nightlight{conf: conf, light: light, sched: sched}
}

// Start schedules the next sunset. It does nothing when disabled.
func (n *Nightlight) Start() {
	if !n.conf.Enabled {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduleNext()
}

func (n *Nightlight) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// must hold n.mu
func (n *Nightlight) scheduleNext() {
	if n.stopped {
		return
	}
	now := n.sched.Now()
	// skip the sunset that just fired
	sunset, ok := NextSunset(now.Add(time.Minute), n.conf.Latitude, n.conf.Longitude)
	if !ok {
		slog.Warn("No sunset found, nightlight disabled", "latitude", n.conf.Latitude, "longitude", n.conf.Longitude)
		return
	}
	slog.Info("Nightlight scheduled", "sunset", sunset.Local())
	n.cancel = n.sched.After(sunset.Sub(now), n.fire)
}

func (n *Nightlight) fire() {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.scheduleNext()
	n.mu.Unlock()

	if n.light.Power() {
		slog.Debug("Sunset, light already on")
		return
	}
	slog.Info("Sunset, switching on", "hue", n.conf.Hue, "saturation", n.conf.Saturation, "brightness", n.conf.Brightness)
	// same order as a HomeKit scene: saturation, hue, brightness, power
	n.light.SetSaturation(n.conf.Saturation)
	if err := n.light.SetHue(n.conf.Hue); err != nil {
		slog.Error("Nightlight failed to set hue", "error", err)
	}
	if err := n.light.SetBrightness(float64(n.conf.Brightness)); err != nil {
		slog.Error("Nightlight failed to set brightness", "error", err)
	}
	if err := n.light.SetPower(true); err != nil {
		slog.Error("Nightlight failed to switch on", "error", err)
	}
}

// NextSunset returns the first sunset after now at the given position.
// ok is false if the sun does not set within the search window.
func NextSunset(now time.Time, latitude, longitude float64) (time.Time, bool) {
	day := now.UTC()
	for i := 0; i < searchDays; i++ {
		d := day.AddDate(0, 0, i)
		_, sunset := sunrise.SunriseSunset(latitude, longitude, d.Year(), d.Month(), d.Day())
		if !sunset.IsZero() && sunset.After(now) {
			return sunset, true
		}
	}
	return time.Time{}, false
}
