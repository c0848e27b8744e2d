package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Narrator  NarratorConfig  `yaml:"narrator"`
	Translate TranslateConfig `yaml:"translate"`
	TTS       TTSConfig       `yaml:"tts"`
	Speech    SpeechConfig    `yaml:"speech"`
	Log       LogConfig       `yaml:"log"`
	QR        QRConfig        `yaml:"qr"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string `yaml:"address"`
	DefaultPlant string `yaml:"default_plant"` // target of the "/" redirect
	Metrics      bool   `yaml:"metrics"`       // expose /metrics for Prometheus
}

// CatalogConfig points at the plant catalog file.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // reload the catalog when the file changes
}

// NarratorConfig holds settings for the narration controller and text formatter.
type NarratorConfig struct {
	NativeLanguage string   `yaml:"native_language"` // language of the catalog text, never translated
	Languages      []string `yaml:"languages"`       // languages offered on the plant page
	Rate           float64  `yaml:"rate"`
	Pitch          float64  `yaml:"pitch"`
	Volume         float64  `yaml:"volume"`
	VoiceMarkers   []string `yaml:"voice_markers"` // name fragments marking a preferred voice
	Labels         []string `yaml:"labels"`        // section labels rewritten to end in a comma
}

// TranslateConfig holds settings for the translation gateway.
type TranslateConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	VoiceID string `yaml:"voice"` // used when no voice could be selected for the language
}

// SAPIConfig holds settings for Windows SAPI5.
type SAPIConfig struct {
	VoiceID string `yaml:"voice"`
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Engine  string        `yaml:"engine"`
	EdgeTTS EdgeTTSConfig `yaml:"edge_tts"`
	SAPI    SAPIConfig    `yaml:"sapi"`
	History LogSettings   `yaml:"history"`
}

// SpeechConfig holds settings for the local narration engine.
type SpeechConfig struct {
	WorkDir      string   `yaml:"work_dir"`
	VoiceRefresh Duration `yaml:"voice_refresh"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// QRConfig holds settings for the QR code generator.
type QRConfig struct {
	BaseURL   string `yaml:"base_url"`
	OutputDir string `yaml:"output_dir"`
	Size      int    `yaml:"size"`
}

// DefaultLabels are the description section labels of the bundled catalog.
var DefaultLabels = []string{
	"Family:",
	"Origin:",
	"Growth Habit:",
	"Light Required:",
	"Water Required:",
	"Soil Condition:",
	"Uses:",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      "localhost:4200",
			DefaultPlant: "PLANT001",
			Metrics:      true,
		},
		Catalog: CatalogConfig{
			Path:  "data/plants.json",
			Watch: true,
		},
		Narrator: NarratorConfig{
			NativeLanguage: "en-IN",
			Languages:      []string{"en-IN", "hi-IN", "de-DE", "fr-FR", "ru-RU"},
			Rate:           0.85,
			Pitch:          1.0,
			Volume:         1.0,
			VoiceMarkers:   []string{"Neural"},
			Labels:         append([]string(nil), DefaultLabels...),
		},
		Translate: TranslateConfig{
			Endpoint: "https://translate.googleapis.com/translate_a/single",
			Timeout:  Duration(10 * time.Second),
			Retries:  0,
		},
		TTS: TTSConfig{
			Engine: "edge-tts",
			EdgeTTS: EdgeTTSConfig{
				VoiceID: "en-IN-NeerjaNeural",
			},
			History: LogSettings{
				Path: "./logs/tts.log",
			},
		},
		Speech: SpeechConfig{
			WorkDir:      "./data/audio",
			VoiceRefresh: Duration(10 * time.Minute),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		QR: QRConfig{
			BaseURL:   "http://localhost:4200",
			OutputDir: "qrcodes",
			Size:      290,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it is created with default values.
// Existing files are merged over the defaults but never written back.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := Save(path, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}
	return Read(path)
}

// Read is Load without side effects: a missing file yields the defaults
// and nothing is written.
func Read(path string) (*Config, error) {
	// .env is optional; edge-tts endpoint parameters usually come from it.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if endpoint := os.Getenv("PLANTGUIDE_TRANSLATE_ENDPOINT"); endpoint != "" {
		cfg.Translate.Endpoint = endpoint
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if !isValidLocale(c.Narrator.NativeLanguage) {
		return fmt.Errorf("invalid native_language format '%s': must be 'xx-YY' (e.g. 'en-IN', 'de-DE')", c.Narrator.NativeLanguage)
	}
	for _, lang := range c.Narrator.Languages {
		if !isValidLocale(lang) {
			return fmt.Errorf("invalid narrator language '%s': must be 'xx-YY'", lang)
		}
	}
	if c.Narrator.Rate <= 0 || c.Narrator.Rate > 10 {
		return fmt.Errorf("narrator rate %.2f out of range (0, 10]", c.Narrator.Rate)
	}
	if c.Narrator.Volume < 0 || c.Narrator.Volume > 1 {
		return fmt.Errorf("narrator volume %.2f out of range [0, 1]", c.Narrator.Volume)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required")
	}
	return nil
}

var localeRe = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

func isValidLocale(s string) bool {
	return localeRe.MatchString(s)
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# PlantGuide Configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	reEngine := regexp.MustCompile(`(?m)^(\s+)engine:`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: edge-tts, windows-sapi\n${1}engine:"))

	reRate := regexp.MustCompile(`(?m)^(\s+)rate:`)
	data = reRate.ReplaceAll(data, []byte("${1}# 1.0 is the engine's normal speaking rate\n${1}rate:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
