package platform

import (
	"context"
	"log/slog"
	"sync"

	c "lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/strip"
	u "lautenbacher.net/neostrip/util"
)

// AbstractPlatform carries what both platforms share: the config, the
// ready signal, shutdown state and an optional asynchronous display
// loop fed with the latest frame only.
type AbstractPlatform struct {
	config         *c.Config
	readyChan      chan bool
	readyOnce      sync.Once
	frames         *u.AtomicEvent[[]strip.Pixel]
	displayFunc    func([]strip.Pixel)
	displayWg      sync.WaitGroup
	stopDisplay    context.CancelFunc
	shutdownMutex  sync.RWMutex
	isShuttingDown bool
}

func newAbstractPlatform(conf *c.Config, displayFunc func([]strip.Pixel)) *AbstractPlatform {
	return &AbstractPlatform{
		config:      conf,
		readyChan:   make(chan bool),
		frames:      u.NewAtomicEvent[[]strip.Pixel](),
		displayFunc: displayFunc,
	}
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) LedsTotal() int {
	return s.config.Strip.LedsTotal
}

func (s *AbstractPlatform) markReady() {
	s.readyOnce.Do(func() { close(s.readyChan) })
}

func (s *AbstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}

func (s *AbstractPlatform) inShutdown() bool {
	s.shutdownMutex.RLock()
	defer s.shutdownMutex.RUnlock()
	return s.isShuttingDown
}

// queueFrame hands a copy of pixels to the display loop. The caller may
// reuse pixels right away.
func (s *AbstractPlatform) queueFrame(pixels []strip.Pixel) error {
	if s.inShutdown() {
		return ErrStopped
	}
	frame := make([]strip.Pixel, len(pixels))
	copy(frame, pixels)
	s.frames.Send(frame)
	return nil
}

func (s *AbstractPlatform) startDisplayDriver() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopDisplay = cancel
	s.displayWg.Add(1)
	go func() {
		defer s.displayWg.Done()
		s.frames.Consume(ctx, func(frame []strip.Pixel) {
			if !s.inShutdown() {
				s.displayFunc(frame)
			}
		})
		slog.Info("Ending display driver go-routine")
	}()
}

func (s *AbstractPlatform) stopDisplayDriver() {
	if s.stopDisplay != nil {
		s.stopDisplay()
	}
	s.displayWg.Wait()
}
