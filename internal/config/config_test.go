package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gomysql.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
connect:
  host: db.internal
  port: 3307
  username: app
  password: secret
  database: orders
  ssl_mode: require

pool:
  initial_size: 2
  max_size: 10
  ping_interval: 5m
  acquire_timeout: 10s

admin:
  port: 9901
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Connect.Host != "db.internal" || cfg.Connect.Port != 3307 {
		t.Errorf("unexpected endpoint %s:%d", cfg.Connect.Host, cfg.Connect.Port)
	}
	if cfg.Connect.SSLMode != "require" {
		t.Errorf("ssl_mode = %q", cfg.Connect.SSLMode)
	}
	if cfg.Pool.MaxSize != 10 || cfg.Pool.InitialSize != 2 {
		t.Errorf("pool sizing = %d/%d", cfg.Pool.InitialSize, cfg.Pool.MaxSize)
	}
	if cfg.Pool.PingInterval != 5*time.Minute {
		t.Errorf("ping_interval = %v", cfg.Pool.PingInterval)
	}
	if !cfg.Admin.Enabled() || cfg.Admin.Bind != "127.0.0.1" {
		t.Errorf("admin config = %+v", cfg.Admin)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "connect:\n  host: localhost\n  username: root\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Connect.Port != 3306 {
		t.Errorf("default port = %d", cfg.Connect.Port)
	}
	if cfg.Connect.SSLMode != "enable" {
		t.Errorf("default ssl_mode = %q", cfg.Connect.SSLMode)
	}
	if cfg.Connect.Collation != 45 {
		t.Errorf("default collation = %d", cfg.Connect.Collation)
	}
	if cfg.Pool.RetryInterval != 10*time.Second {
		t.Errorf("default retry_interval = %v", cfg.Pool.RetryInterval)
	}
	if cfg.Admin.Enabled() {
		t.Error("admin server should default off")
	}
}

func TestLoadEnvSubstitution(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "secret123")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	yaml := `
connect:
  host: localhost
  username: app
  password: ${TEST_DB_PASSWORD}
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Connect.Password != "secret123" {
		t.Errorf("password = %q", cfg.Connect.Password)
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing endpoint", "connect:\n  username: app\n"},
		{"both endpoints", "connect:\n  host: h\n  unix_socket: /s\n  username: app\n"},
		{"missing username", "connect:\n  host: h\n"},
		{"bad ssl mode", "connect:\n  host: h\n  username: app\n  ssl_mode: maybe\n"},
		{"initial exceeds max", "connect:\n  host: h\n  username: app\npool:\n  initial_size: 9\n  max_size: 3\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tc.yaml)); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	c := ConnectConfig{Username: "app", Password: "hunter2"}
	if got := c.Redacted().Password; got != "***REDACTED***" {
		t.Errorf("redacted password = %q", got)
	}
	if c.Password != "hunter2" {
		t.Error("Redacted must not mutate the receiver")
	}
}

func TestWatcherReload(t *testing.T) {
	path := writeTemp(t, "connect:\n  host: a\n  username: app\n")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("connect:\n  host: b\n  username: app\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Connect.Host != "b" {
			t.Errorf("reloaded host = %q", cfg.Connect.Host)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload within the debounce window")
	}
}
