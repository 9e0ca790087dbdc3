package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "netclock") {
		t.Errorf("GetConfigDir() = %v, should contain 'netclock'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	default:
		if configDir != filepath.Join("/tmp/xdg", "netclock") {
			t.Errorf("GetConfigDir() = %v, want /tmp/xdg/netclock", configDir)
		}
	}
}

func TestGetPaths(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	credsPath, err := GetCredentialsPath()
	if err != nil {
		t.Fatalf("GetCredentialsPath() error = %v", err)
	}
	if filepath.Dir(credsPath) != filepath.Dir(configPath) {
		t.Errorf("credentials %v should live next to config %v", credsPath, configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Network.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Network.MaxRetries)
	}
	if cfg.Network.QueueDepth != 10 {
		t.Errorf("QueueDepth = %d, want 10", cfg.Network.QueueDepth)
	}
	if cfg.Time.SyncInterval != 4*time.Hour {
		t.Errorf("SyncInterval = %v, want 4h", cfg.Time.SyncInterval)
	}
	if cfg.Time.SyncTimeout != 10*time.Second {
		t.Errorf("SyncTimeout = %v, want 10s", cfg.Time.SyncTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Time.NTPServer != "pool.ntp.org" {
		t.Errorf("NTPServer = %q, want default", cfg.Time.NTPServer)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
network:
  max_retries: 5
time:
  sync_interval: 30m
  timezone: UTC
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Network.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Network.MaxRetries)
	}
	if cfg.Time.SyncInterval != 30*time.Minute {
		t.Errorf("SyncInterval = %v, want 30m", cfg.Time.SyncInterval)
	}
	if cfg.Network.QueueDepth != 10 {
		t.Errorf("QueueDepth = %d, want default 10", cfg.Network.QueueDepth)
	}
	if cfg.Time.SyncTimeout != 10*time.Second {
		t.Errorf("SyncTimeout = %v, want default 10s", cfg.Time.SyncTimeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "version: [", "failed to parse"},
		{"wrong version", "version: 2\n", "unsupported config version"},
		{"negative retries", "version: 1\nnetwork:\n  max_retries: -1\n", "max_retries"},
		{"zero queue", "version: 1\nnetwork:\n  queue_depth: 0\n", "queue_depth"},
		{"bad timezone", "version: 1\ntime:\n  timezone: Mars/Olympus\n", "timezone"},
		{"bad channels", "version: 1\nprovisioning:\n  channels: \"x\"\n", "channels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Network.ReconnectDelay = 250 * time.Millisecond
	cfg.Display.TokenSecret = "s3cret"
	cfg.Log.Level = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be gone")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# netclock configuration file") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "reconnect_delay: 250ms") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Network.ReconnectDelay != 250*time.Millisecond {
		t.Errorf("ReconnectDelay = %v, want 250ms", loaded.Network.ReconnectDelay)
	}
	if loaded.Display.TokenSecret != "s3cret" || loaded.Log.Level != "debug" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestManagerConfig(t *testing.T) {
	cfg := Default()
	cfg.Network.MaxRetries = 2
	cfg.Provisioning.Channels = "1,6"

	mc, err := cfg.ManagerConfig()
	if err != nil {
		t.Fatalf("ManagerConfig() error = %v", err)
	}
	if mc.MaxRetries != 2 || mc.Channels != "1,6" {
		t.Errorf("ManagerConfig() = %+v", mc)
	}
	if mc.Location.String() != "Europe/Helsinki" {
		t.Errorf("Location = %v, want Europe/Helsinki", mc.Location)
	}
	if mc.SyncInterval != 4*time.Hour || mc.SyncTimeout != 10*time.Second {
		t.Errorf("sync timings = %v / %v", mc.SyncInterval, mc.SyncTimeout)
	}

	cfg.Time.Timezone = ""
	mc, _ = cfg.ManagerConfig()
	if mc.Location != time.UTC {
		t.Errorf("empty timezone should map to UTC, got %v", mc.Location)
	}
}
