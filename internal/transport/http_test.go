package transport

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/tinoosan/modelkeep/internal/data"
)

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestContentLength(t *testing.T) {
	body := payload(20000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/unknown":
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			if r.Method == http.MethodGet {
				_, _ = w.Write(body)
			}
		}
	}))
	defer srv.Close()

	h := NewHTTP(Options{})
	n, err := h.ContentLength(context.Background(), srv.URL+"/file")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if n != int64(len(body)) {
		t.Fatalf("length = %d, want %d", n, len(body))
	}

	n, err = h.ContentLength(context.Background(), srv.URL+"/unknown")
	if err != nil || n != 0 {
		t.Fatalf("unknown length: n=%d err=%v", n, err)
	}

	_, err = h.ContentLength(context.Background(), srv.URL+"/missing")
	var te *data.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusNotFound || te.Op != "probe" {
		t.Fatalf("expected probe TransportError 404, got %v", err)
	}
}

func TestFetchStreamsWithProgress(t *testing.T) {
	body := payload(3*ChunkSize + 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var got bytes.Buffer
	var calls []int64
	n, err := NewHTTP(Options{}).Fetch(context.Background(), srv.URL, &got, func(w int64) { calls = append(calls, w) })
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if n != int64(len(body)) || !bytes.Equal(got.Bytes(), body) {
		t.Fatalf("fetched %d bytes, body match=%v", n, bytes.Equal(got.Bytes(), body))
	}
	if len(calls) == 0 || calls[len(calls)-1] != n {
		t.Fatalf("progress calls = %v", calls)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Fatalf("progress not increasing: %v", calls)
		}
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n, err := NewHTTP(Options{}).Fetch(context.Background(), srv.URL, &buf, nil)
	var te *data.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected TransportError 500, got %v", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Fatalf("nothing should be written on http error")
	}
}

func TestFetchCancelledMidStream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload(ChunkSize))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	n, err := NewHTTP(Options{}).Fetch(ctx, srv.URL, &buf, func(w int64) {
		if w >= ChunkSize {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != ChunkSize {
		t.Fatalf("written = %d, want %d", n, ChunkSize)
	}
}

func TestFetchReadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var buf bytes.Buffer
	_, err := NewHTTP(Options{ReadTimeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL, &buf, nil)
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}
}

func TestFetchRateLimitWaitIsNotIdle(t *testing.T) {
	body := payload(5 * ChunkSize)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	// each chunk after the burst waits ~0.5s on the limiter, well past the
	// read timeout, while the server has already sent everything
	h := NewHTTP(Options{ReadTimeout: 200 * time.Millisecond, RateLimit: 2 * ChunkSize})
	var buf bytes.Buffer
	n, err := h.Fetch(context.Background(), srv.URL, &buf, nil)
	if err != nil {
		t.Fatalf("fetch: %v (written %d)", err, n)
	}
	if n != int64(len(body)) || !bytes.Equal(buf.Bytes(), body) {
		t.Fatalf("written %d of %d", n, len(body))
	}
}

func TestRateLimitBurstCoversChunk(t *testing.T) {
	h := NewHTTP(Options{RateLimit: 10})
	if h.limiter == nil || h.limiter.Burst() < ChunkSize {
		t.Fatalf("limiter burst must cover one chunk")
	}
}
