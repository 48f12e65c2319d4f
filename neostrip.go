package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"lautenbacher.net/neostrip/config"
	"lautenbacher.net/neostrip/discover"
	"lautenbacher.net/neostrip/homekit"
	"lautenbacher.net/neostrip/light"
	"lautenbacher.net/neostrip/logging"
	"lautenbacher.net/neostrip/nightlight"
	"lautenbacher.net/neostrip/platform"
	"lautenbacher.net/neostrip/schedule"
	"lautenbacher.net/neostrip/store"
	"lautenbacher.net/neostrip/strip"
)

const version = "1.0.0"

const discoverTimeout = 3 * time.Second

type App struct {
	ossignal   chan os.Signal
	config     config.Config
	platform   platform.Platform
	tui        *platform.TUIPlatform
	clock      *schedule.Clock
	store      *store.Store
	light      *light.Accessory
	bulb       *homekit.Lightbulb
	nightlight *nightlight.Nightlight
	web        *http.Server
	cancel     context.CancelFunc
	shutdownWg sync.WaitGroup
}

func NewApp(ossignal chan os.Signal) *App {
	return &App{ossignal: ossignal}
}

func main() {
	realp := flag.Bool("real", false, "Set to true if program runs on the real hardware")
	cfile := flag.String("config", config.CONFILE, "Config file to use")
	discoverp := flag.Bool("discover", false, "List the HomeKit accessories on the network and exit")
	flag.Parse()

	if *discoverp {
		if err := listAccessories(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	app := NewApp(ossignal)
	for {
		if err := app.initialise(*cfile, *realp); err != nil {
			slog.Error("Failed to start", "error", err)
			app.shutdown()
			logging.Close()
			os.Exit(1)
		}
		sig := <-ossignal
		app.shutdown()
		if sig == syscall.SIGHUP {
			slog.Info("Reloading configuration", "file", *cfile)
			continue
		}
		slog.Info("Exiting", "signal", sig)
		logging.Close()
		return
	}
}

func listAccessories() error {
	found, err := discover.Accessories(discoverTimeout)
	for _, acc := range found {
		fmt.Println(acc)
	}
	if len(found) == 0 && err == nil {
		fmt.Println("No HomeKit accessories found")
	}
	return err
}

// initialise builds everything from the config file. On error the parts
// already running are left for shutdown to stop.
func (a *App) initialise(cfile string, realHW bool) error {
	conf, err := config.ReadConfig(cfile)
	if err != nil {
		return err
	}
	conf.RealHW = realHW
	a.config = conf

	if err := logging.Init(!realHW, logging.Options(conf.Logging.Active(realHW))); err != nil {
		return err
	}
	slog.Info("Starting neostrip", "version", version, "config", cfile, "realHW", realHW)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.clock = schedule.NewClock()

	if realHW {
		a.platform = platform.NewRaspberryPiPlatform(&a.config)
	} else {
		a.tui = platform.NewTUIPlatform(&a.config, a.ossignal)
		a.platform = a.tui
	}
	if err := a.platform.Start(); err != nil {
		return fmt.Errorf("failed to start platform: %w", err)
	}
	<-a.platform.Ready()

	order, err := strip.ParseChannelOrder(conf.Strip.ChannelOrder)
	if err != nil {
		return err
	}
	ledStrip, err := strip.New(a.platform.LedsTotal(), order, uint8(conf.Strip.Brightness), a.platform)
	if err != nil {
		return err
	}

	a.store, err = store.Open(conf.Accessory.StorePath)
	if err != nil {
		return err
	}
	restore, err := a.store.LoadState()
	if err != nil {
		slog.Warn("Ignoring saved light state", "error", err)
		restore = nil
	}
	serial, err := a.store.SerialNumber()
	if err != nil {
		return err
	}

	a.light, err = light.New(lightConfig(conf, restore), ledStrip, a.clock)
	if err != nil {
		return err
	}

	a.bulb = homekit.NewLightbulb(homekit.Info(conf.Accessory, serial, version))
	a.light.RegisterPropertyHandlers(a.bulb)
	if a.tui != nil {
		a.light.RegisterPropertyHandlers(a.tui)
	}
	a.light.OnChange(a.onLightChange)
	a.reflect(a.light.Snapshot())

	if err := a.light.Start(); err != nil {
		slog.Error("Failed to show the initial colour", "error", err)
	}

	a.nightlight = nightlight.New(conf.Nightlight, a.light, a.clock)
	a.nightlight.Start()

	server, err := homekit.NewServer(conf.Accessory, a.store, a.bulb)
	if err != nil {
		return err
	}
	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		if err := server.ListenAndServe(ctx); err != nil {
			slog.Error("HomeKit server stopped", "error", err)
		}
	}()

	if conf.Web.Enabled {
		a.startWeb(cfile)
	}

	if err := a.watchConfig(ctx, cfile); err != nil {
		slog.Warn("Config file changes will not be picked up", "error", err)
	}
	return nil
}

func lightConfig(conf config.Config, restore *light.Snapshot) light.Config {
	return light.Config{
		StartInFadeMode:  conf.Fade.StartInFadeMode,
		TickInterval:     conf.Fade.TickInterval,
		TransitionLength: conf.Fade.TransitionLength,
		GestureMin:       conf.Gesture.MinInterval,
		GestureMax:       conf.Gesture.MaxInterval,
		GestureCount:     conf.Gesture.Count,
		FlashCount:       conf.Gesture.FlashCount,
		FlashDelay:       conf.Gesture.FlashDelay,
		Restore:          restore,
	}
}

func (a *App) onLightChange(snap light.Snapshot) {
	if err := a.store.SaveState(snap); err != nil {
		slog.Error("Failed to save light state", "error", err)
	}
	a.reflect(snap)
}

// reflect shows a local change on every remote surface.
func (a *App) reflect(snap light.Snapshot) {
	a.bulb.Sync(snap)
	if a.tui != nil {
		a.tui.Reflect(snap)
	}
}

func (a *App) startWeb(cfile string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", config.ConfigHandler(cfile))
	mux.HandleFunc("/api/state", config.StateHandler(a.light.Snapshot))
	a.web = &http.Server{Addr: a.config.Web.Addr, Handler: mux}

	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		slog.Info("Starting web server", "addr", a.web.Addr)
		if err := a.web.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Web server failed", "error", err)
		}
	}()
}

// watchConfig raises SIGHUP when the config file is written. Editors
// replace the file, so the directory is watched.
func (a *App) watchConfig(ctx context.Context, cfile string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(cfile)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isConfigChange(event, abs) {
					continue
				}
				slog.Info("Config file changed", "file", event.Name, "op", event.Op.String())
				select {
				case a.ossignal <- syscall.SIGHUP:
				default:
				}
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func isConfigChange(event fsnotify.Event, cfile string) bool {
	return filepath.Clean(event.Name) == cfile && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create))
}

func (a *App) shutdown() {
	slog.Info("Shutting down")
	if a.cancel != nil {
		a.cancel()
	}
	if a.nightlight != nil {
		a.nightlight.Stop()
	}
	if a.light != nil {
		a.light.Close()
	}
	if a.clock != nil {
		a.clock.Stop()
	}
	if a.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.web.Shutdown(ctx); err != nil {
			slog.Error("Web server shutdown", "error", err)
		}
		cancel()
	}
	a.shutdownWg.Wait()
	if a.platform != nil {
		a.platform.Stop()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}

	a.platform, a.tui, a.clock, a.store = nil, nil, nil, nil
	a.light, a.bulb, a.nightlight, a.web, a.cancel = nil, nil, nil, nil, nil
}
