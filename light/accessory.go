package light

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lautenbacher.net/neostrip/color"
	"lautenbacher.net/neostrip/schedule"
)

// Sink shows one colour on the whole strip.
type Sink interface {
	Show(c color.Color) error
}

// PropertySurface delivers remote writes of the four lightbulb
// properties. Each handler is registered once and called with the new
// value.
type PropertySurface interface {
	OnPower(func(on bool))
	OnHue(func(hue float64))
	OnSaturation(func(saturation float64))
	OnBrightness(func(brightness int))
}

// Handler is what a light accessory offers to its host: property
// handlers for the remote surface and a periodic tick.
type Handler interface {
	RegisterPropertyHandlers(surface PropertySurface)
	Tick() error
}

type Config struct {
	StartInFadeMode  bool
	TickInterval     time.Duration
	TransitionLength time.Duration
	GestureMin       time.Duration
	GestureMax       time.Duration
	GestureCount     int
	FlashCount       int
	FlashDelay       time.Duration
	// Restore, when set, replaces the default colours, mode and power.
	Restore *Snapshot
}

func DefaultConfig() Config {
	return Config{
		TickInterval:     time.Second,
		TransitionLength: 600 * time.Second,
		GestureMin:       time.Second,
		GestureMax:       5 * time.Second,
		GestureCount:     2,
		FlashCount:       3,
		FlashDelay:       500 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.TransitionLength <= 0 {
		errs = append(errs, fmt.Errorf("transition length must be positive, got %s", c.TransitionLength))
	}
	if c.TickInterval > 0 && c.TransitionLength > 0 && c.TransitionLength%c.TickInterval != 0 {
		errs = append(errs, fmt.Errorf("transition length %s must be a multiple of the tick interval %s", c.TransitionLength, c.TickInterval))
	}
	if c.GestureMin < 0 || c.GestureMax <= c.GestureMin {
		errs = append(errs, fmt.Errorf("gesture window (%s, %s) is empty", c.GestureMin, c.GestureMax))
	}
	if c.GestureCount < 1 {
		errs = append(errs, fmt.Errorf("gesture count must be at least 1, got %d", c.GestureCount))
	}
	if c.FlashCount < 0 || c.FlashDelay < 0 {
		errs = append(errs, fmt.Errorf("flash count and delay must not be negative"))
	}
	return errors.Join(errs...)
}

var _ Handler = (*Accessory)(nil)

// Accessory is one colour fading light. All state is guarded by mu; the
// scheduler callbacks and the property handlers never run interleaved.
type Accessory struct {
	mu        sync.Mutex
	cfg       Config
	sink      Sink
	sched     schedule.Scheduler
	colors    *ColorSet
	gesture   *Gesture
	mode      Mode
	direction Direction
	power     bool
	// set by a brightness change, swallows the power-on the remote sends
	// right after it
	brightnessEcho bool
	flash          *flashSequence
	cancelTick     schedule.Cancel
	started        bool
	closed         bool
	listeners      []func(Snapshot)
}

func New(cfg Config, sink Sink, sched schedule.Scheduler) (*Accessory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid light config: %w", err)
	}
	inst := &Accessory{
		cfg:       cfg,
		sink:      sink,
		sched:     sched,
		colors:    NewColorSet(color.Red(), color.Blue(), color.Red()),
		gesture:   NewGesture(cfg.GestureMin, cfg.GestureMax, cfg.GestureCount, sched.Now()),
		mode:      ModeStatic,
		direction: Forward,
	}
	if cfg.StartInFadeMode {
		inst.mode = ModeFade
	}
	if r := cfg.Restore; r != nil {
		inst.colors = NewColorSet(r.Primary.Color(), r.Secondary.Color(), r.Primary.Color())
		inst.mode = r.Mode
		inst.power = r.Power
	}
	return inst, nil
}

// RegisterPropertyHandlers wires the remote property writes to the
// accessory. Failures to show a colour are logged, the state change
// itself is kept.
func (a *Accessory) RegisterPropertyHandlers(surface PropertySurface) {
	surface.OnPower(func(on bool) {
		if err := a.SetPower(on); err != nil {
			slog.Error("Failed to apply power change", "on", on, "error", err)
		}
	})
	surface.OnHue(func(hue float64) {
		if err := a.SetHue(hue); err != nil {
			slog.Error("Failed to apply hue change", "hue", hue, "error", err)
		}
	})
	surface.OnSaturation(func(saturation float64) {
		a.SetSaturation(saturation)
	})
	surface.OnBrightness(func(brightness int) {
		if err := a.SetBrightness(float64(brightness)); err != nil {
			slog.Error("Failed to apply brightness change", "brightness", brightness, "error", err)
		}
	})
}

// Start shows the initial state and starts the fade tick.
func (a *Accessory) Start() error {
	a.mu.Lock()
	if a.started || a.closed {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.cancelTick = a.sched.Every(a.cfg.TickInterval, a.onTick)
	a.colors.ResetCurrent()
	err := a.show(a.restingColor())
	a.mu.Unlock()

	slog.Info("Light accessory started", "mode", a.Mode(), "power", a.Power())
	return err
}

// Close stops the tick and any running flash sequence. Nothing is shown
// after Close returns.
func (a *Accessory) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.cancelTick != nil {
		a.cancelTick()
	}
	if a.flash != nil {
		a.flash.stop()
		a.flash = nil
	}
}

// OnChange registers fn to be called with a snapshot after every
// property change. fn runs without the accessory lock held.
func (a *Accessory) OnChange(fn func(Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// SetPower handles the On property.
func (a *Accessory) SetPower(on bool) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	toggled := a.gesture.Observe(a.sched.Now(), on, a.brightnessEcho)
	a.brightnessEcho = false
	a.power = on
	a.direction = Forward

	var err error
	if on {
		if toggled {
			err = a.toggleMode()
		}
		a.colors.ResetCurrent()
		err = errors.Join(err, a.show(a.colors.Primary()))
	} else {
		err = a.show(color.Black())
	}
	snap := a.snapshot()
	a.mu.Unlock()

	slog.Debug("Power changed", "on", on, "mode", snap.Mode, "gesture", toggled)
	a.notify(snap)
	return err
}

// SetHue handles the Hue property. The new colour becomes the primary
// and the old primary the other end of the fade.
func (a *Accessory) SetHue(hue float64) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	next := color.FromColor(a.colors.Primary())
	next.SetHue(hue)
	a.colors.InsertNewColor(next)

	var err error
	if a.power {
		err = a.show(a.colors.Primary())
		a.colors.ResetCurrent()
	}
	a.direction = Forward
	snap := a.snapshot()
	a.mu.Unlock()

	slog.Debug("Hue changed", "hue", hue, "primary", snap.Primary, "secondary", snap.Secondary)
	a.notify(snap)
	return err
}

// SetSaturation handles the Saturation property. The remote always
// follows it with a hue write, which shows the result, so nothing is
// shown here.
func (a *Accessory) SetSaturation(saturation float64) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.colors.SetPrimarySaturation(saturation)
	snap := a.snapshot()
	a.mu.Unlock()

	slog.Debug("Saturation changed", "saturation", saturation)
	a.notify(snap)
}

// SetBrightness handles the Brightness property for both fade endpoints.
func (a *Accessory) SetBrightness(brightness float64) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.colors.SetBrightness(brightness)

	var err error
	if a.power {
		err = a.show(a.colors.Primary())
		a.colors.ResetCurrent()
	}
	a.brightnessEcho = true
	snap := a.snapshot()
	a.mu.Unlock()

	slog.Debug("Brightness changed", "brightness", brightness)
	a.notify(snap)
	return err
}

// Tick advances the fade by one interval. It does nothing unless the
// light is on and in fade mode.
func (a *Accessory) Tick() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || !a.power || a.mode != ModeFade || a.flash != nil {
		return nil
	}

	start := a.colors.Primary()
	end := a.colors.Secondary()
	var deltaHue, deltaSat float64
	if a.direction == Forward {
		deltaHue = end.Hue() - start.Hue()
		deltaSat = end.Saturation() - start.Saturation()
	} else {
		deltaHue = start.Hue() - end.Hue()
		deltaSat = start.Saturation() - end.Saturation()
	}
	length := float64(a.cfg.TransitionLength)
	interval := float64(a.cfg.TickInterval)
	a.colors.Advance(deltaHue/length*interval, deltaSat/length*interval)

	current := a.colors.Current()
	switch {
	case a.direction == Forward && current.Equal(end):
		a.direction = Reverse
		slog.Debug("Fade reached secondary colour", "current", current)
	case a.direction == Reverse && current.Equal(start):
		a.direction = Forward
		slog.Debug("Fade reached primary colour", "current", current)
	}
	return a.show(current)
}

func (a *Accessory) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *Accessory) Direction() Direction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.direction
}

func (a *Accessory) Power() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.power
}

// Colors returns copies of primary, secondary and current colour.
func (a *Accessory) Colors() (primary, secondary, current color.Color) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.colors.Primary(), a.colors.Secondary(), a.colors.Current()
}

func (a *Accessory) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *Accessory) onTick() {
	if err := a.Tick(); err != nil {
		slog.Error("Fade tick failed", "error", err)
	}
}

// toggleMode flips the mode and starts the acknowledgment flashes: red
// for static, green for fade.
func (a *Accessory) toggleMode() error {
	ack := color.Green()
	if a.mode == ModeFade {
		a.mode = ModeStatic
		ack = color.Red()
	} else {
		a.mode = ModeFade
	}
	slog.Info("Mode switched by power gesture", "mode", a.mode)

	if a.flash != nil {
		a.flash.stop()
	}
	a.flash = newFlashSequence(a.cfg.FlashCount, ack)
	return a.flashStep()
}

// flashStep shows the next flash colour and schedules the one after.
// When the sequence is exhausted the resting colour is shown again.
func (a *Accessory) flashStep() error {
	next, ok := a.flash.next()
	if !ok {
		a.flash = nil
		return a.show(a.restingColor())
	}
	a.flash.cancel = a.sched.After(a.cfg.FlashDelay, a.onFlashTimer)
	return a.sink.Show(next)
}

func (a *Accessory) onFlashTimer() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.flash == nil {
		return
	}
	if err := a.flashStep(); err != nil {
		slog.Error("Flash step failed", "error", err)
	}
}

// show pushes c unless a flash sequence owns the strip; the sequence
// shows the resting colour when it ends.
func (a *Accessory) show(c color.Color) error {
	if a.flash != nil {
		return nil
	}
	return a.sink.Show(c)
}

func (a *Accessory) restingColor() color.Color {
	if a.power {
		return a.colors.Current()
	}
	return color.Black()
}

func (a *Accessory) notify(snap Snapshot) {
	a.mu.Lock()
	listeners := make([]func(Snapshot), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
