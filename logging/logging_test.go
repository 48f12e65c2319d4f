package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (fw *failingWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func TestTUIMode(t *testing.T) {
	if err := Init(true, Options{Level: "DEBUG", Format: "text"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { Close() })

	slog.Info("Initial log")

	var tuiPane bytes.Buffer
	if err := SetOutput(&tuiPane); err != nil {
		t.Fatalf("SetOutput failed: %v", err)
	}
	if !strings.Contains(tuiPane.String(), "Initial log") {
		t.Errorf("Expected buffered log to be flushed to the pane. Got: %s", tuiPane.String())
	}

	slog.Info("Live log")
	if !strings.Contains(tuiPane.String(), "Live log") {
		t.Errorf("Expected live log in the pane. Got: %s", tuiPane.String())
	}

	BufferOutput()
	slog.Info("Buffered log")
	if strings.Contains(tuiPane.String(), "Buffered log") {
		t.Errorf("Expected log to be buffered. Got: %s", tuiPane.String())
	}
}

func TestHWMode_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	require.NoError(t, Init(false, Options{Level: "INFO", Format: "json", File: logFile}))
	slog.Info("HW log", "key", "value")
	slog.Debug("hidden")
	require.NoError(t, Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"HW log"`)
	assert.Contains(t, string(content), `"key":"value"`)
	assert.NotContains(t, string(content), "hidden")
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, Init(true, Options{Level: "ERROR"}))
	t.Cleanup(func() { Close() })
	var pane bytes.Buffer
	require.NoError(t, SetOutput(&pane))

	slog.Info("quiet")
	SetLevel("info")
	slog.Info("loud")

	assert.NotContains(t, pane.String(), "quiet")
	assert.Contains(t, pane.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestStderrFallback(t *testing.T) {
	require.NoError(t, Init(true, Options{Level: "DEBUG", Format: "text"}))
	slog.Info("Shutdown log")

	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	var wg sync.WaitGroup
	wg.Add(1)
	var captured string
	go func() {
		defer wg.Done()
		buf := make([]byte, 1024)
		n, _ := r.Read(buf)
		captured = string(buf[:n])
	}()

	require.NoError(t, Close())
	w.Close()
	wg.Wait()
	os.Stderr = oldStderr

	assert.Contains(t, captured, "Shutdown log")
}

func TestWriteErrorIsReported(t *testing.T) {
	w := &teeWriter{target: &failingWriter{}}
	n, err := w.Write([]byte("x"))
	assert.Equal(t, 1, n)
	assert.Error(t, err)
}
