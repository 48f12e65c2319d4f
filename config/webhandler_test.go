package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigHandler_Get(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got RuntimeConfig
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 5*time.Minute, got.Fade.TransitionLength)
	assert.Equal(t, 4*time.Second, got.Gesture.MaxInterval)
	assert.Equal(t, 52.5, got.Nightlight.Latitude)
}

func TestConfigHandler_MethodNotAllowed(t *testing.T) {
	handler := ConfigHandler(createConfigFile(t, baseConfig))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestConfigHandler_Set(t *testing.T) {
	valid := func() RuntimeConfig {
		conf := defaults()
		return conf.RuntimeConfig()
	}

	tests := []struct {
		name         string
		payload      func() RuntimeConfig
		wantStatus   int
		wantErrorMsg string
		shouldModify bool
	}{
		{
			name: "Valid update",
			payload: func() RuntimeConfig {
				c := valid()
				c.Fade.TransitionLength = 20 * time.Minute
				c.Gesture.FlashCount = 5
				return c
			},
			wantStatus:   http.StatusOK,
			shouldModify: true,
		},
		{
			name: "Zero transition length",
			payload: func() RuntimeConfig {
				c := valid()
				c.Fade.TransitionLength = 0
				return c
			},
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Fade.TransitionLength must be positive",
		},
		{
			name: "Negative flash delay",
			payload: func() RuntimeConfig {
				c := valid()
				c.Gesture.FlashDelay = -time.Second
				return c
			},
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "must be non-negative",
		},
		{
			name: "Nightlight hue out of range",
			payload: func() RuntimeConfig {
				c := valid()
				c.Nightlight.Hue = 400
				return c
			},
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "Nightlight.Hue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := createConfigFile(t, baseConfig)
			handler := ConfigHandler(configFile)
			payload := tt.payload()

			body, err := json.Marshal(payload)
			require.NoError(t, err)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBuffer(body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErrorMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantErrorMsg)
			}

			current, err := ReadConfig(configFile)
			require.NoError(t, err)
			// hardware settings survive every update
			assert.Equal(t, "APA102", current.Strip.LEDType)
			assert.Equal(t, "Test Strip", current.Accessory.Name)
			if tt.shouldModify {
				assert.Equal(t, payload, current.RuntimeConfig())
			} else {
				assert.Equal(t, 5*time.Minute, current.Fade.TransitionLength)
			}
		})
	}
}

func TestConfigHandler_BadBody(t *testing.T) {
	handler := ConfigHandler(createConfigFile(t, baseConfig))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStateHandler(t *testing.T) {
	type state struct {
		Power bool `json:"power"`
	}
	handler := StateHandler(func() state { return state{Power: true} })

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"power":true}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/state", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
