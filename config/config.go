package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

type Config struct {
	RealHW     bool   `yaml:"-"`
	ConfigFile string `yaml:"-"`

	Accessory  AccessoryConfig  `yaml:"Accessory"`
	Strip      StripConfig      `yaml:"Strip"`
	Fade       FadeConfig       `yaml:"Fade"`
	Gesture    GestureConfig    `yaml:"Gesture"`
	Nightlight NightlightConfig `yaml:"Nightlight"`
	Web        WebConfig        `yaml:"Web"`
	Logging    LoggingConfig    `yaml:"Logging"`
}

// AccessoryConfig describes how the light presents itself to HomeKit.
type AccessoryConfig struct {
	Name         string `yaml:"Name"`
	Manufacturer string `yaml:"Manufacturer"`
	Model        string `yaml:"Model"`
	Pin          string `yaml:"Pin"`
	Addr         string `yaml:"Addr"`
	// sqlite database holding the pairing keys and the last light state
	StorePath string `yaml:"StorePath"`
}

type StripConfig struct {
	LedsTotal    int    `yaml:"LedsTotal"`
	LEDType      string `yaml:"LEDType"`
	ChannelOrder string `yaml:"ChannelOrder"`
	Brightness   int    `yaml:"Brightness"`
	SPIFrequency int    `yaml:"SPIFrequency"`
	Invert       bool   `yaml:"Invert"`
	// GPIO pin and DMA channel are handed through to the platform as is.
	GPIOPin    int `yaml:"GPIOPin"`
	DMAChannel int `yaml:"DMAChannel"`
}

type FadeConfig struct {
	StartInFadeMode  bool          `yaml:"StartInFadeMode" json:"StartInFadeMode"`
	TickInterval     time.Duration `yaml:"TickInterval" json:"TickInterval"`
	TransitionLength time.Duration `yaml:"TransitionLength" json:"TransitionLength"`
}

type GestureConfig struct {
	MinInterval time.Duration `yaml:"MinInterval" json:"MinInterval"`
	MaxInterval time.Duration `yaml:"MaxInterval" json:"MaxInterval"`
	Count       int           `yaml:"Count" json:"Count"`
	FlashCount  int           `yaml:"FlashCount" json:"FlashCount"`
	FlashDelay  time.Duration `yaml:"FlashDelay" json:"FlashDelay"`
}

type NightlightConfig struct {
	Enabled    bool    `yaml:"Enabled" json:"Enabled"`
	Latitude   float64 `yaml:"Latitude" json:"Latitude"`
	Longitude  float64 `yaml:"Longitude" json:"Longitude"`
	Hue        float64 `yaml:"Hue" json:"Hue"`
	Saturation float64 `yaml:"Saturation" json:"Saturation"`
	Brightness int     `yaml:"Brightness" json:"Brightness"`
}

type WebConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Addr    string `yaml:"Addr"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

// Active returns the log settings for the platform in use.
func (l LoggingConfig) Active(realHW bool) LogConfig {
	if realHW {
		return l.HW
	}
	return l.TUI
}

// Bytes per pixel for every supported chip, keyed by the LEDType value.
var ledTypes = map[string]int{
	"WS281X": 0, // depends on the channel order
	"WS2801": 3,
	"APA102": 4,
}

var logLevels = map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}

func defaults() Config {
	return Config{
		Accessory: AccessoryConfig{
			Name:         "NeoStrip",
			Manufacturer: "lautenbacher.net",
			Model:        "NeoStrip",
			Pin:          "00102003",
			StorePath:    "neostrip.db",
		},
		Strip: StripConfig{
			LedsTotal:    60,
			LEDType:      "WS281X",
			ChannelOrder: "GRB",
			Brightness:   255,
			SPIFrequency: 800000,
			GPIOPin:      10,
			DMAChannel:   10,
		},
		Fade: FadeConfig{
			TickInterval:     time.Second,
			TransitionLength: 600 * time.Second,
		},
		Gesture: GestureConfig{
			MinInterval: time.Second,
			MaxInterval: 5 * time.Second,
			Count:       2,
			FlashCount:  3,
			FlashDelay:  500 * time.Millisecond,
		},
		Nightlight: NightlightConfig{
			Hue:        30,
			Saturation: 60,
			Brightness: 20,
		},
		Web: WebConfig{Addr: ":8080"},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "DEBUG", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig reads and validates the config file. Missing keys keep their
// default values.
func ReadConfig(cfile string) (Config, error) {
	conf := defaults()
	f, err := os.Open(cfile)
	if err != nil {
		return conf, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		return conf, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.ConfigFile = cfile

	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.Accessory.validate()...)
	errs = append(errs, c.Strip.validate()...)
	errs = append(errs, c.RuntimeConfig().validate()...)
	for name, l := range map[string]LogConfig{"TUI": c.Logging.TUI, "HW": c.Logging.HW} {
		if !logLevels[strings.ToUpper(l.Level)] {
			errs = append(errs, fmt.Errorf("Logging.%s.Level %q must be one of %v", name, l.Level, sortedKeys(logLevels)))
		}
		if f := strings.ToLower(l.Format); f != "text" && f != "json" {
			errs = append(errs, fmt.Errorf("Logging.%s.Format %q must be text or json", name, l.Format))
		}
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		errs = append(errs, errors.New("Web.Addr must be set when the web api is enabled"))
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func (a AccessoryConfig) validate() []error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, errors.New("Accessory.Name must not be empty"))
	}
	if len(a.Pin) != 8 || strings.Trim(a.Pin, "0123456789") != "" {
		errs = append(errs, fmt.Errorf("Accessory.Pin %q must be 8 digits", a.Pin))
	}
	if a.StorePath == "" {
		errs = append(errs, errors.New("Accessory.StorePath must not be empty"))
	}
	return errs
}

func (s StripConfig) validate() []error {
	var errs []error
	if s.LedsTotal <= 0 {
		errs = append(errs, fmt.Errorf("Strip.LedsTotal must be positive, got %d", s.LedsTotal))
	}
	if _, ok := ledTypes[strings.ToUpper(s.LEDType)]; !ok {
		errs = append(errs, fmt.Errorf("Strip.LEDType %q must be one of %v", s.LEDType, sortedKeys(ledTypes)))
	}
	switch strings.ToUpper(s.ChannelOrder) {
	case "RGB", "GRB", "BRG", "RGBW", "GRBW":
	default:
		errs = append(errs, fmt.Errorf("Strip.ChannelOrder %q is not supported", s.ChannelOrder))
	}
	if s.Brightness < 0 || s.Brightness > 255 {
		errs = append(errs, fmt.Errorf("Strip.Brightness must be between 0 and 255, got %d", s.Brightness))
	}
	if s.SPIFrequency <= 0 {
		errs = append(errs, fmt.Errorf("Strip.SPIFrequency must be positive, got %d", s.SPIFrequency))
	}
	return errs
}
