/**
 * Configuration Definitions.
 *
 * Defines the comprehensive configuration structures for the
 * application: capture, event bus, detector plugins, the active
 * probe, the response manager, graph analytics, the session tracker,
 * ML scoring, GeoIP enrichment, and logging.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure, loaded from a single
// YAML file.
type Config struct {
	Capture  CaptureConfig  `yaml:"capture"`
	Bus      BusConfig      `yaml:"bus"`
	Probe    ProbeConfig    `yaml:"probe"`
	Response ResponseConfig `yaml:"response"`
	Graph    GraphConfig    `yaml:"graph"`
	Session  SessionConfig  `yaml:"session"`
	ML       MLConfig       `yaml:"ml"`
	GeoIP    GeoIPConfig    `yaml:"geoip"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type CaptureConfig struct {
	Interface  *string `yaml:"interface"`
	BufferSize int     `yaml:"buffer_size"`
}

type BusConfig struct {
	Topic string `yaml:"topic"`
}

type ProbeConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MaxPerMin   int     `yaml:"max_per_minute"`
	CooldownS   float64 `yaml:"cooldown_s"`
	TimeoutS    float64 `yaml:"timeout_s"`
}

type ResponseConfig struct {
	Enabled    bool    `yaml:"enabled"`
	MaxBlocked int     `yaml:"max_blocked"`
	TTLSeconds float64 `yaml:"ttl_s"`
}

type GraphConfig struct {
	CentralityIntervalS float64 `yaml:"centrality_interval_s"`
	CentralityThreshold float64 `yaml:"centrality_threshold"`
	MinConnections      int     `yaml:"min_connections"`
}

type SessionConfig struct {
	WindowMinutes int `yaml:"window_minutes"`
}

type MLConfig struct {
	Enabled        bool   `yaml:"enabled"`
	AnomalyModel   string `yaml:"anomaly_model_path"`
	ClassifierPath string `yaml:"classifier_model_path"`
}

type GeoIPConfig struct {
	DatabasePath *string `yaml:"database_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file, filling in defaults for
// any field the file omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Hot-reloadable option kinds watched by the Watcher below.
type liveOptions struct {
	probeEnabled        atomic.Bool
	responseEnabled     atomic.Bool
	centralityThreshold atomic.Value // float64
	minConnections      atomic.Int64
}

// Watcher watches the backing config file for changes and keeps a
// small subset of options ("safe to change at runtime") live-updated
// without requiring a process restart.
type Watcher struct {
	mu      sync.Mutex
	path    string
	current *Config
	live    liveOptions
	watcher *fsnotify.Watcher
}

// NewWatcher loads the config at path and starts watching it for
// writes. Call Close when done.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config %s: %w", path, err)
	}

	w := &Watcher{path: path, current: cfg, watcher: fw}
	w.live.probeEnabled.Store(cfg.Probe.Enabled)
	w.live.responseEnabled.Store(cfg.Response.Enabled)
	w.live.centralityThreshold.Store(cfg.Graph.CentralityThreshold)
	w.live.minConnections.Store(int64(cfg.Graph.MinConnections))

	go w.watch()
	return w, nil
}

func (w *Watcher) watch() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			w.live.probeEnabled.Store(cfg.Probe.Enabled)
			w.live.responseEnabled.Store(cfg.Response.Enabled)
			w.live.centralityThreshold.Store(cfg.Graph.CentralityThreshold)
			w.live.minConnections.Store(int64(cfg.Graph.MinConnections))
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Snapshot returns the most recently loaded full configuration.
func (w *Watcher) Snapshot() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := *w.current
	return &c
}

func (w *Watcher) ProbeEnabled() bool        { return w.live.probeEnabled.Load() }
func (w *Watcher) ResponseEnabled() bool     { return w.live.responseEnabled.Load() }
func (w *Watcher) CentralityThreshold() float64 {
	v, _ := w.live.centralityThreshold.Load().(float64)
	return v
}
func (w *Watcher) MinConnections() int { return int(w.live.minConnections.Load()) }

// Close stops watching the config file.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
