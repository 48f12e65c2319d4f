package platform

import (
	"errors"

	"lautenbacher.net/neostrip/strip"
)

// ErrStopped is returned by Display once the platform shuts down.
var ErrStopped = errors.New("platform stopped")

// Platform abstracts the real hardware from the TUI simulation. It is
// the strip.Driver the pixel frames are pushed to.
type Platform interface {
	strip.Driver

	// Start opens the SPI bus or starts the TUI.
	Start() error

	// Stop releases all platform resources. Display fails afterwards.
	Stop()

	// Ready is closed once the platform can show frames.
	Ready() <-chan bool

	// LedsTotal is the number of pixels the platform was configured with.
	LedsTotal() int
}
