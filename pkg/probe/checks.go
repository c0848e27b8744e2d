package probe

import (
	"context"
	"fmt"
	"os"
)

// PlantFinder is the part of the catalog the catalog check needs.
type PlantFinder interface {
	Len() int
	IDs() []string
}

// Catalog checks that the catalog is non-empty and contains defaultID,
// the target of the root redirect.
func Catalog(c PlantFinder, defaultID string) CheckFunc {
	return func(ctx context.Context) error {
		if c.Len() == 0 {
			return fmt.Errorf("catalog is empty")
		}
		if defaultID == "" {
			return nil
		}
		for _, id := range c.IDs() {
			if id == defaultID {
				return nil
			}
		}
		return fmt.Errorf("default plant %q not in catalog", defaultID)
	}
}

// Voices checks that the narration engine reports at least one voice.
// refresh is typically (*speech.Engine).RefreshVoices.
func Voices(refresh func(ctx context.Context) (int, error)) CheckFunc {
	return func(ctx context.Context) error {
		n, err := refresh(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no voices installed; narration will use the platform default")
		}
		return nil
	}
}

// WritableDir checks that dir exists (creating it if needed) and accepts
// new files.
func WritableDir(dir string) CheckFunc {
	return func(ctx context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return fmt.Errorf("directory %s is not writable: %w", dir, err)
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// Env wraps a configuration check such as edgetts.Configured.
func Env(check func() error) CheckFunc {
	return func(ctx context.Context) error {
		return check()
	}
}
