package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plantguide/pkg/config"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")
	historyLog := filepath.Join(tempDir, "tts.log")

	// Pre-existing files are rotated to .old
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(historyLog, []byte("old prompt\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server: config.LogSettings{
			Path:  serverLog,
			Level: "DEBUG",
		},
		Requests: config.LogSettings{
			Path:  requestLog,
			Level: "INFO",
		},
	}

	cleanup, err := Init(cfg, historyLog)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := os.Stat(serverLog + ".old"); err != nil {
		t.Error("server log was not rotated")
	}
	if _, err := os.Stat(historyLog + ".old"); err != nil {
		t.Error("history log was not rotated")
	}
	if _, err := os.Stat(requestLog); os.IsNotExist(err) {
		t.Error("Request log file not created")
	}
	if RequestLogger == nil {
		t.Fatal("RequestLogger was not initialized")
	}

	slog.Debug("debug line for file")
	slog.Warn("Narration: translation failed", "language", "hi-IN")
	RequestLogger.Info("request", "path", "/plant/PLANT001")
	cleanup()

	content, err := os.ReadFile(serverLog)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "debug line for file") {
		t.Error("server log missing debug record")
	}
	if strings.Contains(string(content), "/plant/PLANT001") {
		t.Error("request records must not reach the server log")
	}

	reqContent, _ := os.ReadFile(requestLog)
	if !strings.Contains(string(reqContent), "/plant/PLANT001") {
		t.Error("request log missing request record")
	}

	if last := LastWarning.GetLastLine(); !strings.Contains(last, "translation failed") {
		t.Errorf("expected last warning to be captured, got %q", last)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogCaptureWriter(t *testing.T) {
	w := &LogCaptureWriter{}
	_, _ = w.Write([]byte("level=WARN msg=first\n"))
	_, _ = w.Write([]byte("level=ERROR msg=second\n"))
	if got := w.GetLastLine(); got != "level=ERROR msg=second" {
		t.Errorf("unexpected last line %q", got)
	}
}
