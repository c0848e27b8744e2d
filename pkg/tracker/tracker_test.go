package tracker

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "translate.googleapis.com"

	stats := tr.Snapshot()
	if len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	tr.TrackAPISuccess(provider)
	tr.TrackAPIFailure(provider)
	tr.TrackAPIFailure(provider)
	tr.TrackFallback(provider)
	tr.TrackCanceled(provider)

	stats = tr.Snapshot()
	pStats, ok := stats[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}

	if pStats.APISuccess != 1 {
		t.Errorf("Expected 1 APISuccess, got %d", pStats.APISuccess)
	}
	if pStats.APIFailures != 2 {
		t.Errorf("Expected 2 APIFailures, got %d", pStats.APIFailures)
	}
	if pStats.Fallbacks != 1 {
		t.Errorf("Expected 1 Fallback, got %d", pStats.Fallbacks)
	}
	if pStats.Canceled != 1 {
		t.Errorf("Expected 1 Canceled, got %d", pStats.Canceled)
	}
}

func TestReset(t *testing.T) {
	tr := New()
	tr.TrackAPISuccess("edge-tts")
	tr.Reset()
	if len(tr.Snapshot()) != 0 {
		t.Error("Expected empty stats after reset")
	}
}

func TestConcurrentTracking(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackAPISuccess("p")
		}()
	}
	wg.Wait()
	if got := tr.Snapshot()["p"].APISuccess; got != 50 {
		t.Errorf("Expected 50, got %d", got)
	}
}
