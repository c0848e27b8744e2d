// Command plantqr writes one QR code PNG per catalog plant. Each code
// encodes the URL of the plant's page.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"

	"plantguide/pkg/catalog"
	"plantguide/pkg/config"
)

var (
	configPath = flag.String("config", "configs/plantguide.yaml", "Path to the config file")
	baseURL    = flag.String("base-url", "", "Override qr.base_url, e.g. http://192.168.1.33:4200")
	outputDir  = flag.String("out", "", "Override qr.output_dir")
)

func main() {
	flag.Parse()

	cfg, err := config.Read(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.QR.BaseURL = *baseURL
	}
	if *outputDir != "" {
		cfg.QR.OutputDir = *outputDir
	}

	plants, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	n, err := generate(plants.IDs(), cfg.QR)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QR generation failed: %v\n", err)
		os.Exit(1)
	}
	slog.Info("QR codes written", "count", n, "dir", cfg.QR.OutputDir)
}

// generate writes <id>.png for every id and returns the number written.
func generate(ids []string, cfg config.QRConfig) (int, error) {
	if cfg.Size <= 0 {
		cfg.Size = 290
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, id := range ids {
		if err := checkFileID(id); err != nil {
			return i, err
		}
		u, err := plantURL(cfg.BaseURL, id)
		if err != nil {
			return i, err
		}
		path := filepath.Join(cfg.OutputDir, id+".png")
		if err := qrcode.WriteFile(u, qrcode.Highest, cfg.Size, path); err != nil {
			return i, fmt.Errorf("failed to write %s: %w", path, err)
		}
		slog.Debug("Generated QR code", "id", id, "url", u)
	}
	return len(ids), nil
}

// checkFileID rejects ids that cannot name a file inside the output
// directory.
func checkFileID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("plant id %q is not usable as a file name", id)
	}
	return nil
}

// plantURL returns <base>/plant/<id>.
func plantURL(base, id string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q: scheme and host are required", base)
	}
	return u.JoinPath("plant", id).String(), nil
}
