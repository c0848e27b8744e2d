package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"plantguide/internal/api"
	"plantguide/pkg/audio"
	"plantguide/pkg/catalog"
	"plantguide/pkg/config"
	"plantguide/pkg/guide"
	"plantguide/pkg/logging"
	"plantguide/pkg/metrics"
	"plantguide/pkg/narration"
	"plantguide/pkg/probe"
	"plantguide/pkg/request"
	"plantguide/pkg/speech"
	"plantguide/pkg/textfmt"
	"plantguide/pkg/tracker"
	"plantguide/pkg/translate"
	"plantguide/pkg/tts"
	"plantguide/pkg/tts/edgetts"
	"plantguide/pkg/tts/sapi"
	"plantguide/pkg/version"
	"plantguide/pkg/watcher"
)

const defaultConfigPath = "configs/plantguide.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log, appCfg.TTS.History.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	// Synthesis history
	tts.SetLogPath(appCfg.TTS.History.Path)

	slog.Info("PlantGuide Started", "version", version.Version)

	plants, err := catalog.Open(appCfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load plant catalog: %w", err)
	}
	slog.Info("Plant catalog loaded", "path", appCfg.Catalog.Path, "plants", plants.Len())

	if appCfg.Catalog.Watch {
		w := watcher.NewService(plants.Path(), watcher.DefaultDebounce, func() {
			if err := plants.Reload(); err != nil {
				slog.Warn("Catalog reload failed, keeping previous catalog", "error", err)
			}
		})
		if err := w.Start(ctx); err != nil {
			slog.Warn("Catalog watcher disabled", "error", err)
		}
	}

	tr := tracker.New()

	synth, err := newSynthesizer(&appCfg.TTS, tr)
	if err != nil {
		return err
	}

	player := audio.New()
	defer player.Shutdown()

	engine := speech.New(synth, player, appCfg.Speech.WorkDir)
	if fb := newFallbackSynthesizer(&appCfg.TTS, tr, runtime.GOOS); fb != nil {
		engine.SetFallback(fb)
	}

	reqClient := request.New(tr, request.ClientConfig{
		Retries:   appCfg.Translate.Retries,
		Timeout:   time.Duration(appCfg.Translate.Timeout),
		BaseDelay: 500 * time.Millisecond,
	})
	translator := translate.NewClient(reqClient, appCfg.Translate.Endpoint)

	ctrl := narration.NewController(engine, translator, tr, narration.Options{
		NativeLanguage: appCfg.Narrator.NativeLanguage,
		Rate:           appCfg.Narrator.Rate,
		Pitch:          appCfg.Narrator.Pitch,
		Volume:         appCfg.Narrator.Volume,
		VoiceMarkers:   appCfg.Narrator.VoiceMarkers,
	})
	defer ctrl.Stop()

	guideSvc := guide.New(plants, textfmt.New(appCfg.Narrator.Labels), ctrl)

	// Startup Probes
	probes := []probe.Probe{
		{
			Name:     "Plant Catalog",
			Check:    probe.Catalog(plants, appCfg.Server.DefaultPlant),
			Critical: true,
		},
		{
			Name:     "Audio Work Directory",
			Check:    probe.WritableDir(appCfg.Speech.WorkDir),
			Critical: true,
		},
		{
			Name:     "Voice Inventory",
			Check:    probe.Voices(engine.RefreshVoices),
			Critical: false, // narration falls back to the engine default voice
		},
	}
	if appCfg.TTS.Engine == "edge-tts" {
		probes = append(probes, probe.Probe{
			Name:     "Edge TTS Endpoint",
			Check:    probe.Env(edgetts.Configured),
			Critical: false,
		})
	}

	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	go engine.WatchVoices(ctx, time.Duration(appCfg.Speech.VoiceRefresh))

	var m *metrics.Metrics
	if appCfg.Server.Metrics {
		m = metrics.New(metrics.Sources{
			Tracker:   tr,
			Narration: ctrl.Snapshot,
			Plants:    plants.Len,
		})
	}

	return runServer(ctx, appCfg, guideSvc, player, tr, m)
}

// newSynthesizer builds the speech synthesizer named by cfg.Engine.
func newSynthesizer(cfg *config.TTSConfig, tr *tracker.Tracker) (tts.Synthesizer, error) {
	switch cfg.Engine {
	case "edge-tts", "":
		return edgetts.NewProvider(tr, cfg.EdgeTTS.VoiceID), nil
	case "windows-sapi":
		return sapi.NewProvider(cfg.SAPI.VoiceID), nil
	default:
		return nil, fmt.Errorf("unknown TTS engine %q (options: edge-tts, windows-sapi)", cfg.Engine)
	}
}

// newFallbackSynthesizer returns the synthesizer to switch to when the
// configured one fails fatally, or nil when the platform offers none.
func newFallbackSynthesizer(cfg *config.TTSConfig, tr *tracker.Tracker, goos string) tts.Synthesizer {
	switch cfg.Engine {
	case "edge-tts", "":
		if goos == "windows" {
			return sapi.NewProvider(cfg.SAPI.VoiceID)
		}
		return nil
	case "windows-sapi":
		return edgetts.NewProvider(tr, cfg.EdgeTTS.VoiceID)
	default:
		return nil
	}
}

func runServer(ctx context.Context, cfg *config.Config, g *guide.Service, out *audio.Manager, tr *tracker.Tracker, m *metrics.Metrics) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	msgs := api.NewMessages()
	handlers := api.Handlers{
		Plants:    api.NewPlantHandler(g, msgs, cfg.Narrator.Languages),
		Narration: api.NewNarrationHandler(g, msgs),
		Stats:     api.NewStatsHandler(tr),
		Audio:     api.NewAudioHandler(out),
	}
	if m != nil {
		handlers.Metrics = m.Handler()
	}
	srv := api.NewServer(cfg.Server.Address, handlers, cfg.Server.DefaultPlant)

	if m != nil {
		srv.Handler = m.Instrument(srv.Handler)
	}
	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
