package light

import (
	"fmt"
	"strings"

	"lautenbacher.net/neostrip/color"
)

type Mode int

const (
	ModeStatic Mode = iota
	ModeFade
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeFade:
		return "fade"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return ModeStatic, nil
	case "fade":
		return ModeFade, nil
	default:
		return ModeStatic, fmt.Errorf("unknown mode %q", s)
	}
}

// Direction of the fade between primary and secondary colour.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forward":
		*d = Forward
	case "reverse":
		*d = Reverse
	default:
		return fmt.Errorf("unknown direction %q", text)
	}
	return nil
}

// HSV is the serialisable form of a colour.
type HSV struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
}

func HSVOf(c color.Color) HSV {
	h, s, v := c.HSV()
	return HSV{Hue: h, Saturation: s, Brightness: v}
}

func (h HSV) Color() color.Color {
	return color.FromHSV(h.Hue, h.Saturation, h.Brightness)
}

// Snapshot is a point in time copy of the accessory state, used for
// persistence, the web api and syncing the remote surface.
type Snapshot struct {
	Power     bool      `json:"power"`
	Mode      Mode      `json:"mode"`
	Direction Direction `json:"direction"`
	Primary   HSV       `json:"primary"`
	Secondary HSV       `json:"secondary"`
	Current   HSV       `json:"current"`
	Flashing  bool      `json:"flashing"`
}

func (a *Accessory) snapshot() Snapshot {
	return Snapshot{
		Power:     a.power,
		Mode:      a.mode,
		Direction: a.direction,
		Primary:   HSVOf(a.colors.Primary()),
		Secondary: HSVOf(a.colors.Secondary()),
		Current:   HSVOf(a.colors.Current()),
		Flashing:  a.flash != nil,
	}
}
