// Package config loads the YAML configuration used by the example
// binary and by applications that prefer file-driven setup over
// struct-literal parameters. Values support ${VAR} environment
// substitution and the file can be hot-reloaded via a Watcher.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Connect ConnectConfig `yaml:"connect"`
	Pool    PoolConfig    `yaml:"pool"`
	Admin   AdminConfig   `yaml:"admin"`
}

// ConnectConfig describes the server to connect to and how to
// authenticate.
type ConnectConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	UnixSocket      string `yaml:"unix_socket"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"ssl_mode"` // disable | enable | require
	Collation       int    `yaml:"collation"`
	MultiStatements bool   `yaml:"multi_statements"`
}

// PoolConfig carries the pool sizing and health-maintenance intervals.
type PoolConfig struct {
	InitialSize    int           `yaml:"initial_size"`
	MaxSize        int           `yaml:"max_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	ResetTimeout   time.Duration `yaml:"reset_timeout"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
	ThreadSafe     bool          `yaml:"thread_safe"`
}

// AdminConfig configures the optional admin/metrics HTTP server. A zero
// Port leaves it disabled.
type AdminConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Enabled reports whether the admin server should be started.
func (a AdminConfig) Enabled() bool { return a.Port != 0 }

// Redacted returns a copy of the ConnectConfig with the password masked,
// safe for logging and the admin API.
func (c ConnectConfig) Redacted() ConnectConfig {
	out := c
	if out.Password != "" {
		out.Password = "***REDACTED***"
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		if val, ok := os.LookupEnv(string(varName)); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file with env var substitution.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = substituteEnvVars(data)

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Connect.Port == 0 {
		cfg.Connect.Port = 3306
	}
	if cfg.Connect.SSLMode == "" {
		cfg.Connect.SSLMode = "enable"
	}
	if cfg.Connect.Collation == 0 {
		cfg.Connect.Collation = 45 // utf8mb4_general_ci
	}
	if cfg.Pool.InitialSize == 0 {
		cfg.Pool.InitialSize = 1
	}
	if cfg.Pool.MaxSize == 0 {
		cfg.Pool.MaxSize = 151
	}
	if cfg.Pool.ConnectTimeout == 0 {
		cfg.Pool.ConnectTimeout = 20 * time.Second
	}
	if cfg.Pool.PingTimeout == 0 {
		cfg.Pool.PingTimeout = 10 * time.Second
	}
	if cfg.Pool.ResetTimeout == 0 {
		cfg.Pool.ResetTimeout = 10 * time.Second
	}
	if cfg.Pool.RetryInterval == 0 {
		cfg.Pool.RetryInterval = 10 * time.Second
	}
	if cfg.Pool.PingInterval == 0 {
		cfg.Pool.PingInterval = time.Hour
	}
	if cfg.Pool.AcquireTimeout == 0 {
		cfg.Pool.AcquireTimeout = 30 * time.Second
	}
	if cfg.Admin.Bind == "" {
		cfg.Admin.Bind = "127.0.0.1"
	}
}

func validate(cfg *Config) error {
	if cfg.Connect.Host == "" && cfg.Connect.UnixSocket == "" {
		return fmt.Errorf("connect: either host or unix_socket is required")
	}
	if cfg.Connect.Host != "" && cfg.Connect.UnixSocket != "" {
		return fmt.Errorf("connect: host and unix_socket are mutually exclusive")
	}
	if cfg.Connect.Username == "" {
		return fmt.Errorf("connect: username is required")
	}
	switch cfg.Connect.SSLMode {
	case "", "disable", "enable", "require":
	default:
		return fmt.Errorf("connect: unsupported ssl_mode %q (must be disable, enable or require)", cfg.Connect.SSLMode)
	}
	if cfg.Pool.MaxSize != 0 && cfg.Pool.InitialSize > cfg.Pool.MaxSize {
		return fmt.Errorf("pool: initial_size %d exceeds max_size %d", cfg.Pool.InitialSize, cfg.Pool.MaxSize)
	}
	return nil
}

// Watcher watches a config file for changes and calls the callback with the new config.
type Watcher struct {
	path     string
	callback func(*Config)
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopCh   chan struct{}
}

// NewWatcher creates a new config file watcher.
func NewWatcher(path string, callback func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching config file: %w", err)
	}

	cw := &Watcher{
		path:     path,
		callback: callback,
		watcher:  w,
		stopCh:   make(chan struct{}),
	}

	go cw.run()
	return cw, nil
}

func (cw *Watcher) run() {
	// Debounce timer to avoid rapid reloads
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					cw.reload()
				})
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "err", err)
		case <-cw.stopCh:
			return
		}
	}
}

func (cw *Watcher) reload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cfg, err := Load(cw.path)
	if err != nil {
		slog.Warn("config hot-reload failed", "path", cw.path, "err", err)
		return
	}

	slog.Info("configuration reloaded", "path", cw.path)
	cw.callback(cfg)
}

// Stop stops the config watcher.
func (cw *Watcher) Stop() error {
	close(cw.stopCh)
	return cw.watcher.Close()
}
