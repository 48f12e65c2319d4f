package main

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/light"
)

func TestLightConfig(t *testing.T) {
	conf, err := config.ReadConfig("config.yml")
	require.NoError(t, err)

	restore := &light.Snapshot{Power: true, Mode: light.ModeFade}
	lc := lightConfig(conf, restore)

	assert.Equal(t, conf.Fade.StartInFadeMode, lc.StartInFadeMode)
	assert.Equal(t, time.Second, lc.TickInterval)
	assert.Equal(t, 10*time.Minute, lc.TransitionLength)
	assert.Equal(t, time.Second, lc.GestureMin)
	assert.Equal(t, 5*time.Second, lc.GestureMax)
	assert.Equal(t, 2, lc.GestureCount)
	assert.Equal(t, 3, lc.FlashCount)
	assert.Equal(t, 500*time.Millisecond, lc.FlashDelay)
	assert.Same(t, restore, lc.Restore)
	assert.NoError(t, lc.Validate())
}

func TestIsConfigChange(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "config.yml")

	assert.True(t, isConfigChange(fsnotify.Event{Name: cfile, Op: fsnotify.Write}, cfile))
	assert.True(t, isConfigChange(fsnotify.Event{Name: cfile, Op: fsnotify.Create}, cfile))
	assert.False(t, isConfigChange(fsnotify.Event{Name: cfile, Op: fsnotify.Chmod}, cfile))
	assert.False(t, isConfigChange(fsnotify.Event{Name: cfile + ".swp", Op: fsnotify.Write}, cfile))
}

func TestWatchConfigRaisesSighup(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfile, []byte("Web:\n  Enabled: false\n"), 0o644))

	ossignal := make(chan os.Signal, 1)
	app := NewApp(ossignal)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.watchConfig(ctx, cfile))
	t.Cleanup(func() {
		cancel()
		app.shutdownWg.Wait()
	})

	require.NoError(t, os.WriteFile(cfile, []byte("Web:\n  Enabled: true\n"), 0o644))
	select {
	case sig := <-ossignal:
		assert.Equal(t, syscall.SIGHUP, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload signal after the config changed")
	}
}
