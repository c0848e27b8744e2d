package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name: "Success Probe",
			Check: func(ctx context.Context) error {
				return nil
			},
			Critical: true,
		},
		{
			Name: "Failure Probe (Non-Critical)",
			Check: func(ctx context.Context) error {
				return errors.New("minor issue")
			},
			Critical: false,
		},
		{
			Name: "Timeout Probe",
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			Timeout: 20 * time.Millisecond,
		},
	}

	results := Run(context.Background(), probes)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("Expected success probe to pass, got error: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("Expected failure probe to fail, got nil")
	}
	if !errors.Is(results[2].Error, context.DeadlineExceeded) {
		t.Errorf("Expected timeout probe to hit its deadline, got %v", results[2].Error)
	}
}

func TestAnalyzeResults(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{
			name: "All Pass",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}, Error: nil},
			},
			wantErr: false,
		},
		{
			name: "Critical Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}, Error: errors.New("fail")},
			},
			wantErr: true,
		},
		{
			name: "Non-Critical Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: false}, Error: errors.New("fail")},
			},
			wantErr: false,
		},
		{
			name: "Mixed Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: false}, Error: errors.New("fail")},
				{Probe: Probe{Name: "P2", Critical: true}, Error: errors.New("fail")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("AnalyzeResults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type stubCatalog []string

func (s stubCatalog) Len() int      { return len(s) }
func (s stubCatalog) IDs() []string { return s }

func TestCatalogCheck(t *testing.T) {
	ctx := context.Background()
	if err := Catalog(stubCatalog{"PLANT001", "PLANT002"}, "PLANT001")(ctx); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
	if err := Catalog(stubCatalog{}, "")(ctx); err == nil {
		t.Error("expected empty catalog to fail")
	}
	if err := Catalog(stubCatalog{"PLANT002"}, "PLANT001")(ctx); err == nil {
		t.Error("expected missing default plant to fail")
	}
}

func TestVoicesCheck(t *testing.T) {
	ctx := context.Background()
	if err := Voices(func(context.Context) (int, error) { return 3, nil })(ctx); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
	if err := Voices(func(context.Context) (int, error) { return 0, nil })(ctx); err == nil {
		t.Error("expected no voices to fail")
	}
	if err := Voices(func(context.Context) (int, error) { return 0, errors.New("com error") })(ctx); err == nil {
		t.Error("expected refresh error to fail")
	}
}

func TestWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	if err := WritableDir(dir)(context.Background()); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe left files behind: %v", entries)
	}
}

func TestEnv(t *testing.T) {
	if err := Env(func() error { return nil })(context.Background()); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
	if err := Env(func() error { return errors.New("missing") })(context.Background()); err == nil {
		t.Error("expected failure")
	}
}
