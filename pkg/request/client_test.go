package request

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"plantguide/pkg/tracker"
)

func newTestClient(tr *tracker.Tracker, retries int) *Client {
	return New(tr, ClientConfig{
		Retries:   retries,
		Timeout:   2 * time.Second,
		BaseDelay: 10 * time.Millisecond,
		MaxDelay:  50 * time.Millisecond,
	})
}

func providerOf(t *testing.T, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return ProviderName(u.Host)
}

func TestGet_Sequential(t *testing.T) {
	var conc int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&conc, 1)
		defer atomic.AddInt32(&conc, -1)
		if current > 1 {
			t.Errorf("Concurrency detected! Expected sequential.")
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer svr.Close()

	client := newTestClient(tracker.New(), 0)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.GetWithHeaders(context.Background(), svr.URL, nil); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestGet_Retry(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("success"))
	}))
	defer svr.Close()

	tr := tracker.New()
	client := newTestClient(tr, 2)

	body, err := client.GetWithHeaders(context.Background(), svr.URL, nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != "success" {
		t.Errorf("body = %q, want success", body)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if tr.Snapshot()[providerOf(t, svr.URL)].APISuccess != 1 {
		t.Error("expected one tracked success")
	}
}

func TestGet_NoRetryByDefault(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer svr.Close()

	client := newTestClient(tracker.New(), 0)
	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil)

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestGet_Non2xx(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"NotFound", http.StatusNotFound},
		{"Forbidden", http.StatusForbidden},
		{"NoContentIsStillOK", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer svr.Close()

			tr := tracker.New()
			client := newTestClient(tr, 0)
			_, err := client.GetWithHeaders(context.Background(), svr.URL, nil)
			if tt.status == http.StatusNoContent {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var se *StatusError
			if !errors.As(err, &se) || se.StatusCode != tt.status {
				t.Fatalf("expected StatusError %d, got %v", tt.status, err)
			}
			if tr.Snapshot()[providerOf(t, svr.URL)].APIFailures != 1 {
				t.Error("expected one tracked failure")
			}
		})
	}
}

func TestGet_CooldownAfterFailure(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer svr.Close()

	client := New(tracker.New(), ClientConfig{BaseDelay: time.Minute, MaxDelay: time.Minute})

	if _, err := client.GetWithHeaders(context.Background(), svr.URL, nil); err == nil {
		t.Fatal("expected first call to fail")
	}
	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil)
	if !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected ErrCooldown, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("cooldown must not hit the network, attempts = %d", got)
	}
}

func TestGet_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer svr.Close()
	defer close(release)

	tr := tracker.New()
	client := newTestClient(tr, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.GetWithHeaders(ctx, svr.URL, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation took too long")
	}
	if tr.Snapshot()[providerOf(t, svr.URL)].Canceled != 1 {
		t.Error("expected one tracked cancellation")
	}
}

func TestGet_UserAgent(t *testing.T) {
	uaCh := make(chan string, 2)
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uaCh <- r.Header.Get("User-Agent")
	}))
	defer svr.Close()

	client := newTestClient(nil, 0)
	if _, err := client.GetWithHeaders(context.Background(), svr.URL, nil); err != nil {
		t.Fatal(err)
	}
	if ua := <-uaCh; ua != defaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", ua, defaultUserAgent)
	}

	if _, err := client.GetWithHeaders(context.Background(), svr.URL, map[string]string{"user-agent": "custom"}); err != nil {
		t.Fatal(err)
	}
	if ua := <-uaCh; ua != "custom" {
		t.Errorf("User-Agent = %q, want custom", ua)
	}
}

func TestProviderName(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"translate.googleapis.com", "translate"},
		{"speech.platform.bing.com", "edge-tts"},
		{"127.0.0.1:8080", "127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if got := ProviderName(tt.host); got != tt.expected {
			t.Errorf("ProviderName(%q) = %q; want %q", tt.host, got, tt.expected)
		}
	}
}
