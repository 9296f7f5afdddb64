package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHELF_REDIS_ADDR", "localhost:6379")

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.FetchUserAgent != DefaultUserAgent {
		t.Errorf("FetchUserAgent = %q", cfg.FetchUserAgent)
	}
	if cfg.FetchStrict {
		t.Error("FetchStrict should default to false")
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.SweepInterval)
	}
	if cfg.UserHeader != "X-Forwarded-User" {
		t.Errorf("UserHeader = %q", cfg.UserHeader)
	}
	if cfg.AllowedCIDRS != nil {
		t.Errorf("AllowedCIDRS = %v, want nil", cfg.AllowedCIDRS)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHELF_REDIS_ADDR", "redis:6379")
	t.Setenv("SHELF_FETCH_TIMEOUT", "2s")
	t.Setenv("SHELF_FETCH_STRICT", "true")
	t.Setenv("SHELF_SWEEP_INTERVAL", "0s")
	t.Setenv("SHELF_ENRICH_WORKERS", "8")
	t.Setenv("SHELF_CORS_ORIGINS", "https://a.example, 'https://b.example'")

	cfg := Load()

	if cfg.FetchTimeout != 2*time.Second {
		t.Errorf("FetchTimeout = %v, want 2s", cfg.FetchTimeout)
	}
	if !cfg.FetchStrict {
		t.Error("FetchStrict = false, want true")
	}
	if cfg.SweepInterval != 0 {
		t.Errorf("SweepInterval = %v, want 0", cfg.SweepInterval)
	}
	if cfg.EnrichWorkers != 8 {
		t.Errorf("EnrichWorkers = %d, want 8", cfg.EnrichWorkers)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing redis addr",
			env:  map[string]string{},
		},
		{
			name: "import file without user",
			env: map[string]string{
				"SHELF_REDIS_ADDR":   "localhost:6379",
				"SHELF_IMPORT_FILE":  "/tmp/bookmarks.yaml",
				"SHELF_IMPORT_USER":  "",
				"SHELF_PRETTY_LOG":   "false",
				"SHELF_ENRICH_QUEUE": "4",
			},
		},
		{
			name: "password required but empty",
			env: map[string]string{
				"SHELF_REDIS_ADDR":              "localhost:6379",
				"SHELF_REDIS_PASSWORD_REQUIRED": "true",
			},
		},
		{
			name: "zero workers",
			env: map[string]string{
				"SHELF_REDIS_ADDR":     "localhost:6379",
				"SHELF_ENRICH_WORKERS": "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELF_REDIS_ADDR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"invalid value uses default", "invalid", true, true},
		{"missing variable uses default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{`"10.0.0.0/8", '192.168.1.1'`, []string{"10.0.0.0/8", "192.168.1.1"}},
	}

	for _, tt := range tests {
		if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
