package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"plantguide/pkg/config"
	"plantguide/pkg/logging"
	"plantguide/pkg/tracker"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	catalogPath, err := filepath.Abs("../../data/plants.json")
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Address = "localhost:0" // 0 lets OS choose free port
	cfg.Catalog.Path = catalogPath
	cfg.Speech.WorkDir = filepath.Join(dir, "audio")
	cfg.TTS.History.Path = filepath.Join(dir, "logs", "tts.log")
	cfg.Log.Server.Path = filepath.Join(dir, "logs", "server.log")
	cfg.Log.Requests.Path = filepath.Join(dir, "logs", "requests.log")

	configPath := filepath.Join(dir, "plantguide.yaml")
	if err := config.Save(configPath, cfg); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Create a context that cancels quickly to verify startup sequence
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx, configPath); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if _, err := os.Stat(cfg.Log.Server.Path); err != nil {
		t.Errorf("server log not created: %v", err)
	}
}

func TestRun_UnknownDefaultPlant(t *testing.T) {
	dir := t.TempDir()
	catalogPath, _ := filepath.Abs("../../data/plants.json")

	cfg := config.DefaultConfig()
	cfg.Server.Address = "localhost:0"
	cfg.Server.DefaultPlant = "PLANT999"
	cfg.Catalog.Path = catalogPath
	cfg.Speech.WorkDir = filepath.Join(dir, "audio")
	cfg.TTS.History.Path = filepath.Join(dir, "tts.log")
	cfg.Log.Server.Path = filepath.Join(dir, "server.log")
	cfg.Log.Requests.Path = filepath.Join(dir, "requests.log")

	configPath := filepath.Join(dir, "plantguide.yaml")
	if err := config.Save(configPath, cfg); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx, configPath); err == nil {
		t.Fatal("expected startup checks to fail for a missing default plant")
	}
}

func TestNewSynthesizer(t *testing.T) {
	for _, engine := range []string{"", "edge-tts", "windows-sapi"} {
		if _, err := newSynthesizer(&config.TTSConfig{Engine: engine}, tracker.New()); err != nil {
			t.Errorf("newSynthesizer(%q) failed: %v", engine, err)
		}
	}
	if _, err := newSynthesizer(&config.TTSConfig{Engine: "espeak"}, nil); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestNewFallbackSynthesizer(t *testing.T) {
	tests := []struct {
		engine string
		goos   string
		want   string
	}{
		{"edge-tts", "windows", "*sapi.Provider"},
		{"", "windows", "*sapi.Provider"},
		{"edge-tts", "linux", ""},
		{"windows-sapi", "windows", "*edgetts.Provider"},
		{"espeak", "windows", ""},
	}
	for _, tt := range tests {
		fb := newFallbackSynthesizer(&config.TTSConfig{Engine: tt.engine}, tracker.New(), tt.goos)
		got := ""
		if fb != nil {
			got = fmt.Sprintf("%T", fb)
		}
		if got != tt.want {
			t.Errorf("newFallbackSynthesizer(%q, %q) = %q, want %q", tt.engine, tt.goos, got, tt.want)
		}
	}
}

func TestLoggingMiddleware(t *testing.T) {
	dir := t.TempDir()
	cleanup, err := logging.Init(&config.LogConfig{
		Server:   config.LogSettings{Path: filepath.Join(dir, "server.log"), Level: "ERROR"},
		Requests: config.LogSettings{Path: filepath.Join(dir, "requests.log"), Level: "INFO"},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
