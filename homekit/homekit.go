// Package homekit binds the light to a HomeKit colored lightbulb.
package homekit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/light"
)

// Lightbulb is the HomeKit side of the light. Remote writes are passed
// to the registered handlers, local changes are published with Sync.
//
// The Home app follows a saturation write with a hue write, but hap drops
// writes that do not change a value. So every remote saturation write is
// followed by a hue write of the current hue here, and a later write of
// that same hue within the same request is skipped.
type Lightbulb struct {
	acc *accessory.ColoredLightbulb

	mu          sync.Mutex
	hue         func(float64)
	replayedReq *http.Request
	replayedHue float64
}

var _ light.PropertySurface = (*Lightbulb)(nil)

// Info describes the accessory to HomeKit.
func Info(conf config.AccessoryConfig, serial, firmware string) accessory.Info {
	return accessory.Info{
		Name:         conf.Name,
		SerialNumber: serial,
		Manufacturer: conf.Manufacturer,
		Model:        conf.Model,
		Firmware:     firmware,
	}
}

func NewLightbulb(info accessory.Info) *Lightbulb {
	return &Lightbulb{acc: accessory.NewColoredLightbulb(info)}
}

func (l *Lightbulb) OnPower(fn func(bool)) {
	l.acc.Lightbulb.On.OnValueRemoteUpdate(func(on bool) {
		slog.Debug("HomeKit power write", "on", on)
		fn(on)
	})
}

func (l *Lightbulb) OnHue(fn func(float64)) {
	l.mu.Lock()
	l.hue = fn
	l.mu.Unlock()

	l.acc.Lightbulb.Hue.OnCValueUpdate(func(_ *characteristic.C, newVal, _ interface{}, req *http.Request) {
		if req == nil {
			return
		}
		hue := toFloat(newVal)
		l.mu.Lock()
		replayed := req == l.replayedReq && hue == l.replayedHue
		l.replayedReq = nil
		l.mu.Unlock()
		if replayed {
			slog.Debug("HomeKit hue write already applied", "hue", hue)
			return
		}
		slog.Debug("HomeKit hue write", "hue", hue)
		fn(hue)
	})
}

func (l *Lightbulb) OnSaturation(fn func(float64)) {
	l.acc.Lightbulb.Saturation.OnCValueUpdate(func(_ *characteristic.C, newVal, _ interface{}, req *http.Request) {
		if req == nil {
			return
		}
		sat := toFloat(newVal)
		slog.Debug("HomeKit saturation write", "saturation", sat)
		fn(sat)

		hue := l.acc.Lightbulb.Hue.Value()
		l.mu.Lock()
		applyHue := l.hue
		l.replayedReq, l.replayedHue = req, hue
		l.mu.Unlock()
		if applyHue != nil {
			applyHue(hue)
		}
	})
}

func (l *Lightbulb) OnBrightness(fn func(int)) {
	l.acc.Lightbulb.Brightness.OnValueRemoteUpdate(func(brightness int) {
		slog.Debug("HomeKit brightness write", "brightness", brightness)
		fn(brightness)
	})
}

// Sync publishes the power state and the primary colour to the
// characteristics. Values set here do not call the remote handlers.
func (l *Lightbulb) Sync(snap light.Snapshot) {
	lb := l.acc.Lightbulb
	lb.On.SetValue(snap.Power)
	lb.Hue.SetValue(snap.Primary.Hue)
	lb.Saturation.SetValue(snap.Primary.Saturation)
	lb.Brightness.SetValue(int(math.Round(snap.Primary.Brightness)))
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		slog.Warn("Unexpected HomeKit value", "value", v)
		return 0
	}
}

// Accessory is the hap accessory for the server.
func (l *Lightbulb) Accessory() *accessory.A {
	return l.acc.A
}

type Server struct {
	srv *hap.Server
}

// NewServer prepares the HomeKit server for bulb. Pairing data is kept in
// store.
func NewServer(conf config.AccessoryConfig, store hap.Store, bulb *Lightbulb) (*Server, error) {
	srv, err := hap.NewServer(store, bulb.Accessory())
	if err != nil {
		return nil, fmt.Errorf("failed to create HomeKit server: %w", err)
	}
	srv.Pin = conf.Pin
	srv.Addr = conf.Addr
	return &Server{srv: srv}, nil
}

// ListenAndServe publishes the accessory until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	slog.Info("Starting HomeKit server", "addr", s.srv.Addr, "pin", s.srv.Pin)
	err := s.srv.ListenAndServe(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("HomeKit server failed: %w", err)
	}
	return nil
}
