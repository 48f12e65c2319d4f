package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/strip"
)

func TestAbstractPlatform_QueueFrameCopies(t *testing.T) {
	frames := make(chan []strip.Pixel, 4)
	p := newAbstractPlatform(&config.Config{}, func(f []strip.Pixel) { frames <- f })
	p.startDisplayDriver()
	t.Cleanup(p.stopDisplayDriver)

	pixels := []strip.Pixel{{Red: 1}, {Green: 2}}
	require.NoError(t, p.queueFrame(pixels))
	pixels[0].Red = 99

	select {
	case f := <-frames:
		assert.Equal(t, []strip.Pixel{{Red: 1}, {Green: 2}}, f)
	case <-time.After(time.Second):
		t.Fatal("frame was not displayed")
	}
}

func TestAbstractPlatform_Shutdown(t *testing.T) {
	p := newAbstractPlatform(&config.Config{}, func([]strip.Pixel) {})
	p.startDisplayDriver()

	p.setInShutdown()
	assert.ErrorIs(t, p.queueFrame(nil), ErrStopped)

	done := make(chan struct{})
	go func() {
		p.stopDisplayDriver()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("display driver did not stop")
	}
}

func TestAbstractPlatform_Ready(t *testing.T) {
	p := newAbstractPlatform(&config.Config{Strip: config.StripConfig{LedsTotal: 12}}, nil)
	assert.Equal(t, 12, p.LedsTotal())

	select {
	case <-p.Ready():
		t.Fatal("ready before markReady")
	default:
	}
	p.markReady()
	p.markReady()
	_, open := <-p.Ready()
	assert.False(t, open)
}
