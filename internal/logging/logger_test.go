package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn level should be enabled")
	}
	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info level should be disabled")
	}
}

func TestInitialize_UnknownLevel(t *testing.T) {
	if err := Initialize("loud"); err == nil {
		t.Error("Initialize() should reject unknown levels")
	}
}

func TestInitializeWithOptions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netclock.log")

	if err := InitializeWithOptions(Options{Level: "info", File: path}); err != nil {
		t.Fatalf("InitializeWithOptions() error = %v", err)
	}
	Info("file sink check", zap.String("component", "test"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "file sink check") {
		t.Errorf("log file missing entry, got: %s", data)
	}
}

func TestHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogStateChange("idle", "starting")
	LogQueueDrop("presentation", "show_qr")
	LogDriverEvent("wifi", "disconnected", zap.String("reason", "beacon timeout"))
	LogConnection("127.0.0.1:5000", "display_connected")

	if logs.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", logs.Len())
	}

	drops := logs.FilterMessage("Queue full, dropping item").All()
	if len(drops) != 1 {
		t.Fatalf("expected 1 drop entry, got %d", len(drops))
	}
	if drops[0].Level != zapcore.WarnLevel {
		t.Errorf("drop entry level = %v, want warn", drops[0].Level)
	}
	if drops[0].ContextMap()["queue"] != "presentation" {
		t.Errorf("drop entry queue = %v", drops[0].ContextMap()["queue"])
	}
}

func TestGetLogger_ConcurrentUse(t *testing.T) {
	SetLogger(nil)
	t.Cleanup(func() { SetLogger(nil) })

	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil before Initialize")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				LogConnection("127.0.0.1:5000", "display_connected")
			}
			if i == 0 {
				SetLogger(zap.New(core))
			}
		}(i)
	}
	wg.Wait()

	Info("after")
	if logs.FilterMessage("after").Len() != 1 {
		t.Error("logger swapped during concurrent use was not installed")
	}
}
