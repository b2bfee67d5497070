package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
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

			result := mustDuration("TEST_DURATION", tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
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

			result := mustBool("TEST_BOOL", tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustFloat(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      float64
		expected float64
	}{
		{"valid float", "0.75", 0.3, 0.75},
		{"integer", "1", 0.3, 1},
		{"invalid uses default", "often", 0.3, 0.3},
		{"missing uses default", "", 0.3, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_FLOAT", tt.value)

			if got := mustFloat("TEST_FLOAT", tt.def); got != tt.expected {
				t.Errorf("mustFloat() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a.example.com, "b.example.com" ,, 'c' `)
	want := []string{"a.example.com", "b.example.com", "c"}

	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HERALD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	if cfg.Live {
		t.Error("Live should default to false")
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q", cfg.ListenPort)
	}
	if cfg.RequestTimeout != 4*time.Second || cfg.MaxRetries != 2 || cfg.RetryInterval != 200*time.Millisecond {
		t.Errorf("gateway defaults = %v/%d/%v", cfg.RequestTimeout, cfg.MaxRetries, cfg.RetryInterval)
	}
	if cfg.SimInterval != 5*time.Second || cfg.SimProbability != 0.3 {
		t.Errorf("simulated defaults = %v/%v", cfg.SimInterval, cfg.SimProbability)
	}
	if cfg.PollInterval != 30*time.Second || cfg.SnoozeCheckInterval != 15*time.Second {
		t.Errorf("task defaults = %v/%v", cfg.PollInterval, cfg.SnoozeCheckInterval)
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled without an address")
	}
}

func TestLoadLiveRequiresEndpoints(t *testing.T) {
	t.Setenv("HERALD_ENV_FILE", "")
	t.Setenv("HERALD_LIVE", "true")
	t.Setenv("HERALD_SOCKET_URL", "wss://events.example.com/ws")
	t.Setenv("HERALD_API_URL", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic without HERALD_API_URL in live mode")
		}
	}()
	Load()
}

func TestLoadRejectsBadProbability(t *testing.T) {
	t.Setenv("HERALD_ENV_FILE", "")
	t.Setenv("HERALD_SIM_PROBABILITY", "1.5")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic on a probability above 1")
		}
	}()
	Load()
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "herald.env")
	content := "HERALD_LIVE=true\nHERALD_SOCKET_URL=wss://file.example.com/ws\nHERALD_API_URL=https://file.example.com/api\nHERALD_TOKEN=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("HERALD_ENV_FILE", path)
	// process environment wins over the file
	t.Setenv("HERALD_TOKEN", "from-env")
	// godotenv sets what is missing; make sure these are restored afterwards
	for _, key := range []string{"HERALD_LIVE", "HERALD_SOCKET_URL", "HERALD_API_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if !cfg.Live || cfg.SocketURL != "wss://file.example.com/ws" || cfg.APIURL != "https://file.example.com/api" {
		t.Errorf("env file not applied: %+v", cfg.Redacted())
	}
	if cfg.Token != "from-env" {
		t.Errorf("Token = %q, want the process value", cfg.Token)
	}
	if cfg.Redacted().Token != "***REDACTED***" {
		t.Error("Redacted() must hide the token")
	}
}
