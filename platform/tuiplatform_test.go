package platform

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/light"
	"lautenbacher.net/neostrip/strip"
)

type recordedWrites struct {
	calls []string
}

func newTestTUI(rec *recordedWrites) *TUIPlatform {
	p := NewTUIPlatform(&config.Config{}, make(chan os.Signal, 1))
	p.OnPower(func(on bool) {
		if on {
			rec.calls = append(rec.calls, "on")
		} else {
			rec.calls = append(rec.calls, "off")
		}
	})
	p.OnHue(func(h float64) { rec.calls = append(rec.calls, "hue") })
	p.OnSaturation(func(s float64) { rec.calls = append(rec.calls, "saturation") })
	p.OnBrightness(func(b int) { rec.calls = append(rec.calls, "brightness") })
	return p
}

func press(t *testing.T, p *TUIPlatform, keys string) {
	t.Helper()
	for _, r := range keys {
		cmd := p.handleKey(r)
		require.NotNil(t, cmd, "key %q", r)
		cmd()
	}
}

func TestTUIPlatform_Keys(t *testing.T) {
	rec := &recordedWrites{}
	p := newTestTUI(rec)

	press(t, p, " Hs")
	assert.Equal(t, []string{"on", "hue", "saturation", "hue"}, rec.calls)

	c := p.state.Value()
	assert.True(t, c.Power)
	assert.Equal(t, 10.0, c.Hue)
	assert.Equal(t, 90.0, c.Saturation)

	rec.calls = nil
	press(t, p, "b")
	assert.Equal(t, []string{"brightness", "on"}, rec.calls, "brightness is echoed with an on write")
	assert.Equal(t, 90, p.state.Value().Brightness)

	rec.calls = nil
	press(t, p, " b")
	assert.Equal(t, []string{"off", "brightness"}, rec.calls, "no echo while off")

	assert.Nil(t, p.handleKey('x'))
}

func TestTUIPlatform_KeysClampAndWrap(t *testing.T) {
	p := newTestTUI(&recordedWrites{})

	press(t, p, "h")
	assert.Equal(t, 350.0, p.state.Value().Hue)
	press(t, p, "SB")
	assert.Equal(t, 100.0, p.state.Value().Saturation)
	assert.Equal(t, 100, p.state.Value().Brightness)
}

func TestTUIPlatform_KeysWithoutHandlers(t *testing.T) {
	p := NewTUIPlatform(&config.Config{}, make(chan os.Signal, 1))
	assert.Nil(t, p.handleKey(' '))
	assert.True(t, p.state.Value().Power, "controls still change")
}

func TestTUIPlatform_Reflect(t *testing.T) {
	p := newTestTUI(&recordedWrites{})
	p.Reflect(light.Snapshot{
		Power:   true,
		Mode:    light.ModeFade,
		Primary: light.HSV{Hue: 200, Saturation: 40, Brightness: 59.6},
	})

	c := p.state.Value()
	assert.Equal(t, controls{Power: true, Hue: 200, Saturation: 40, Brightness: 60, Mode: light.ModeFade}, c)
	assert.Contains(t, p.introText(c), "fade")
}

func TestRenderStrip(t *testing.T) {
	out := renderStrip([]strip.Pixel{{}, {Red: 255}, {Blue: 40}, {White: 150}})

	assert.True(t, strings.HasPrefix(out, " [#404040]·[-]"))
	assert.Contains(t, out, "[#ff0000]█[-]")
	assert.Contains(t, out, "[#0000ff]░[-]")
	assert.Contains(t, out, "[#ffffff]▓[-]")
}

func TestScaledColor(t *testing.T) {
	assert.Equal(t, "[#000000]", scaledColor(strip.Pixel{}))
	assert.Equal(t, "[#ff8000]", scaledColor(strip.Pixel{Red: 100, Green: 50}))
	assert.Equal(t, "[#ffffff]", scaledColor(strip.Pixel{White: 1}))
}

func TestTUIPlatform_DisplayAfterStop(t *testing.T) {
	p := NewTUIPlatform(&config.Config{}, make(chan os.Signal, 1))
	p.setInShutdown()
	assert.ErrorIs(t, p.Display([]strip.Pixel{{Red: 1}}), ErrStopped)
}
