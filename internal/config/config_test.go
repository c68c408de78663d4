package config

import (
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		set      bool
		def      string
		expected string
	}{
		{name: "set", key: "TEST_GETENV", value: "custom", set: true, def: "fallback", expected: "custom"},
		{name: "unset falls back", key: "TEST_GETENV_MISSING", def: "fallback", expected: "fallback"},
		{name: "empty falls back", key: "TEST_GETENV_EMPTY", value: "", set: true, def: "fallback", expected: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv(tt.key, tt.value)
			}
			if got := getenv(tt.key, tt.def); got != tt.expected {
				t.Errorf("getenv(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		expected int
	}{
		{name: "valid integer", value: "42", set: true, expected: 42},
		{name: "invalid integer falls back", value: "forty-two", set: true, expected: 7},
		{name: "unset falls back", expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("TEST_GETENV_INT", tt.value)
			}
			if got := getenvInt("TEST_GETENV_INT", 7); got != tt.expected {
				t.Errorf("getenvInt() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		expected time.Duration
	}{
		{name: "valid duration", value: "90s", set: true, expected: 90 * time.Second},
		{name: "invalid duration falls back", value: "soon", set: true, expected: time.Minute},
		{name: "unset falls back", expected: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("TEST_MUST_DURATION", tt.value)
			}
			if got := mustDuration("TEST_MUST_DURATION", time.Minute); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "http://localhost:3000", expected: []string{"http://localhost:3000"}},
		{name: "spaces and quotes", input: ` "a.example.com" , b.example.com `, expected: []string{"a.example.com", "b.example.com"}},
		{name: "skips empty parts", input: "a,,b,", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLoadPanicsOnUnknownBackend(t *testing.T) {
	t.Setenv("ROLODEX_STORAGE", "cassandra")
	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should have panicked on unknown backend")
		}
	}()
	Load()
}

func TestLoadPanicsWhenRedisAddrMissing(t *testing.T) {
	t.Setenv("ROLODEX_STORAGE", "redis")
	t.Setenv("ROLODEX_REDIS_ADDR", "")
	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should have panicked without ROLODEX_REDIS_ADDR")
		}
	}()
	Load()
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROLODEX_STORAGE", "memory")
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.DefaultPageSize != 12 {
		t.Errorf("DefaultPageSize = %d, want 12", cfg.DefaultPageSize)
	}
	if cfg.NameMinLen != 2 {
		t.Errorf("NameMinLen = %d, want 2", cfg.NameMinLen)
	}
	if !cfg.EnableAnalytics || !cfg.EnableImport || !cfg.EnableExport {
		t.Error("feature toggles should default to enabled")
	}
}

func TestLoadClampsDefaultPageSize(t *testing.T) {
	t.Setenv("ROLODEX_STORAGE", "memory")
	t.Setenv("ROLODEX_DEFAULT_PAGE_SIZE", "500")
	t.Setenv("ROLODEX_MAX_PAGE_SIZE", "100")
	cfg := Load()

	if cfg.DefaultPageSize != 100 {
		t.Errorf("DefaultPageSize = %d, want clamped to 100", cfg.DefaultPageSize)
	}
}
