package platform

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/light"
	"lautenbacher.net/neostrip/logging"
	"lautenbacher.net/neostrip/strip"
	"lautenbacher.net/neostrip/util"
)

const (
	hueStep        = 10.0
	saturationStep = 10.0
	brightnessStep = 10
)

// TUIPlatform simulates the strip in the terminal. Its keys act like a
// HomeKit controller, so it doubles as a light.PropertySurface.
type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	ledDisplay   *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	logFlushOnce sync.Once

	mu       sync.Mutex
	controls controls
	handlers handlers
	// property writes run in order on one goroutine, never on the
	// tview event loop
	commands chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	state    *util.AtomicEvent[controls]
}

// controls is the view a remote controller has of the light.
type controls struct {
	Power      bool
	Hue        float64
	Saturation float64
	Brightness int
	Mode       light.Mode
}

type handlers struct {
	power      func(bool)
	hue        func(float64)
	saturation func(float64)
	brightness func(int)
}

var _ light.PropertySurface = (*TUIPlatform)(nil)

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	ctx, cancel := context.WithCancel(context.Background())
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
		controls:     controls{Saturation: 100, Brightness: 100},
		commands:     make(chan func(), 16),
		ctx:          ctx,
		cancel:       cancel,
		state:        util.NewAtomicEvent[controls](),
	}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.drawFrame)
	return inst
}

func (s *TUIPlatform) OnPower(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers.power = fn
}

func (s *TUIPlatform) OnHue(fn func(float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers.hue = fn
}

func (s *TUIPlatform) OnSaturation(fn func(float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers.saturation = fn
}

func (s *TUIPlatform) OnBrightness(fn func(int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers.brightness = fn
}

// Reflect updates the controller view after the light changed, for
// example through HomeKit.
func (s *TUIPlatform) Reflect(snap light.Snapshot) {
	s.mu.Lock()
	s.controls = controls{
		Power:      snap.Power,
		Hue:        snap.Primary.Hue,
		Saturation: snap.Primary.Saturation,
		Brightness: int(math.Round(snap.Primary.Brightness)),
		Mode:       snap.Mode,
	}
	c := s.controls
	s.mu.Unlock()
	s.state.Send(c)
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()
	go s.runCommands()
	s.startDisplayDriver()
	return nil
}

func (s *TUIPlatform) Stop() {
	s.setInShutdown()
	s.stopDisplayDriver()
	s.cancel()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
	logging.BufferOutput()
}

func (s *TUIPlatform) Display(pixels []strip.Pixel) error {
	return s.queueFrame(pixels)
}

func (s *TUIPlatform) runCommands() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case cmd := <-s.commands:
			cmd()
		}
	}
}

// handleKey applies a key to the controller view and returns the
// property write it causes, or nil.
func (s *TUIPlatform) handleKey(r rune) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handlers
	c := &s.controls

	var cmd func()
	switch r {
	case ' ', 'p', 'P':
		c.Power = !c.Power
		on := c.Power
		if h.power != nil {
			cmd = func() { h.power(on) }
		}
	case 'h', 'H':
		delta := hueStep
		if r == 'h' {
			delta = -hueStep
		}
		c.Hue = math.Mod(c.Hue+delta+360, 360)
		hue := c.Hue
		if h.hue != nil {
			cmd = func() { h.hue(hue) }
		}
	case 's', 'S':
		delta := saturationStep
		if r == 's' {
			delta = -saturationStep
		}
		c.Saturation = math.Max(0, math.Min(100, c.Saturation+delta))
		sat, hue := c.Saturation, c.Hue
		// HomeKit follows a saturation write with the hue
		if h.saturation != nil && h.hue != nil {
			cmd = func() {
				h.saturation(sat)
				h.hue(hue)
			}
		}
	case 'b', 'B':
		delta := brightnessStep
		if r == 'b' {
			delta = -brightnessStep
		}
		c.Brightness = max(0, min(100, c.Brightness+delta))
		bright, on := c.Brightness, c.Power
		// and a brightness write with an on write while the light is on
		if h.brightness != nil && h.power != nil {
			cmd = func() {
				h.brightness(bright)
				if on {
					h.power(true)
				}
			}
		}
	default:
		return nil
	}
	s.state.Send(*c)
	return cmd
}

func (s *TUIPlatform) introText(c controls) string {
	power := "[#ff0000]off[-]"
	if c.Power {
		power = "[#00ff00]on[-]"
	}
	line1 := fmt.Sprintf("Power: %s | Hue: [#ffff00]%3.0f[-] | Saturation: [#ffff00]%3.0f[-] | Brightness: [#ffff00]%3d[-] | Mode: [#ffff00]%s[-]",
		power, c.Hue, c.Saturation, c.Brightness, c.Mode)
	line2 := "Hit [blue]space[-] for power, [blue]h[-]/[blue]H[-] hue, [blue]s[-]/[blue]S[-] saturation, [blue]b[-]/[blue]B[-] brightness"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.mu.Lock()
	s.intro.SetText(s.introText(s.controls))
	s.mu.Unlock()
	s.intro.SetBorder(true).SetTitle(" NeoStrip Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	s.ledDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.ledDisplay.SetBorder(true)
	s.ledDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.ledDisplay, 4, 0, false).
		AddItem(s.logView, 0, 1, true)

	// logs are buffered until the pane exists
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			if err := logging.SetOutput(tview.ANSIWriter(s.logView)); err != nil {
				slog.Error("Failed to attach log pane", "error", err)
			}
			s.markReady()
		})
	})

	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				s.ossignalChan <- os.Interrupt
				return nil
			case 'r', 'R':
				s.ossignalChan <- syscall.SIGHUP
				return nil
			}
			if cmd := s.handleKey(event.Rune()); cmd != nil {
				select {
				case s.commands <- cmd:
				default:
					slog.Warn("Dropping key press, light is busy", "key", string(event.Rune()))
				}
			}
			return nil
		}
		return event
	})

	go s.state.Consume(s.ctx, func(c controls) {
		s.tviewapp.QueueUpdateDraw(func() { s.intro.SetText(s.introText(c)) })
	})

	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// drawFrame runs on the display driver goroutine.
func (s *TUIPlatform) drawFrame(pixels []strip.Pixel) {
	text := renderStrip(pixels)
	s.tviewapp.QueueUpdateDraw(func() { s.ledDisplay.SetText(text) })
}

// renderStrip draws one block per pixel in its colour, scaled to full
// intensity so dim colours stay visible. Dark pixels are shown as dots.
func renderStrip(pixels []strip.Pixel) string {
	var buf strings.Builder
	buf.Grow(len(pixels) * len("[#000000]█[-]"))
	buf.WriteString(" ")
	for _, p := range pixels {
		if p.IsEmpty() {
			buf.WriteString("[#404040]·[-]")
			continue
		}
		buf.WriteString(scaledColor(p))
		buf.WriteString(shade(p))
		buf.WriteString("[-]")
	}
	return buf.String()
}

func shade(p strip.Pixel) string {
	value := max(p.Red, p.Green, p.Blue, p.White)
	switch {
	case value <= 64:
		return "░"
	case value <= 128:
		return "▒"
	case value <= 192:
		return "▓"
	default:
		return "█"
	}
}

// scaledColor returns the tview colour tag of p. White is mixed into the
// RGB channels.
func scaledColor(p strip.Pixel) string {
	red := math.Min(float64(p.Red)+float64(p.White), 255)
	green := math.Min(float64(p.Green)+float64(p.White), 255)
	blue := math.Min(float64(p.Blue)+float64(p.White), 255)
	maxColor := math.Max(red, math.Max(green, blue))
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / maxColor
	const epsilon = 1e-9
	return fmt.Sprintf("[#%02x%02x%02x]",
		byte(math.Round(math.Min(red*factor, 255)+epsilon)),
		byte(math.Round(math.Min(green*factor, 255)+epsilon)),
		byte(math.Round(math.Min(blue*factor, 255)+epsilon)))
}
