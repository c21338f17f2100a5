package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/metrics"
)

// ChunkSize is the read buffer of the fetch loop; progress is reported once
// per chunk.
const ChunkSize = 8192

// ErrReadTimeout is returned when a fetch receives no bytes for longer than
// the configured read timeout.
var ErrReadTimeout = errors.New("read timeout")

// Options configures an HTTP transport.
type Options struct {
	// ConnectTimeout bounds dialing and waiting for response headers.
	ConnectTimeout time.Duration
	// ReadTimeout bounds the gap between two reads of a response body.
	// There is no limit on a whole transfer.
	ReadTimeout time.Duration
	// RateLimit caps throughput in bytes per second; 0 disables it.
	RateLimit int
	UserAgent string
}

// HTTP implements Transport over net/http.
type HTTP struct {
	client      *http.Client
	readTimeout time.Duration
	limiter     *rate.Limiter
	userAgent   string
}

var _ Transport = (*HTTP)(nil)

// NewHTTP builds an HTTP transport. Zero timeouts default to 30s.
func NewHTTP(o Options) *HTTP {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "modelkeep"
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{Timeout: o.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	tr.ResponseHeaderTimeout = o.ConnectTimeout

	h := &HTTP{
		client:      &http.Client{Transport: tr},
		readTimeout: o.ReadTimeout,
		userAgent:   o.UserAgent,
	}
	if o.RateLimit > 0 {
		burst := o.RateLimit
		if burst < ChunkSize {
			burst = ChunkSize
		}
		h.limiter = rate.NewLimiter(rate.Limit(o.RateLimit), burst)
	}
	return h
}

// ContentLength issues a HEAD request.
func (h *HTTP) ContentLength(ctx context.Context, url string) (int64, error) {
	start := time.Now()
	defer func() { metrics.TransportLatency.WithLabelValues("probe").Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, h.fail("probe", url, 0, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, h.fail("probe", url, 0, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, h.fail("probe", url, resp.StatusCode, nil)
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil && n > 0 {
		return n, nil
	}
	return 0, nil
}

// Fetch issues a GET request and copies the body to dst chunk by chunk.
// Cancelling ctx aborts the transfer between two chunks.
func (h *HTTP) Fetch(ctx context.Context, url string, dst io.Writer, progress func(int64)) (int64, error) {
	start := time.Now()
	defer func() { metrics.TransportLatency.WithLabelValues("fetch").Observe(time.Since(start).Seconds()) }()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var idle atomic.Bool
	watchdog := time.AfterFunc(h.readTimeout, func() {
		idle.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, h.fail("fetch", url, 0, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, h.fail("fetch", url, 0, h.cause(ctx, err, &idle))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, h.fail("fetch", url, resp.StatusCode, nil)
	}

	buf := make([]byte, ChunkSize)
	var written int64
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			// the idle clock only runs while waiting on the server
			watchdog.Stop()
			if h.limiter != nil {
				if err := h.limiter.WaitN(ctx, n); err != nil {
					return written, h.fail("fetch", url, 0, err)
				}
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("write %s: %w", url, werr)
			}
			written += int64(n)
			metrics.DownloadedBytes.Add(float64(n))
			if progress != nil {
				progress(written)
			}
			watchdog.Reset(h.readTimeout)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, h.fail("fetch", url, 0, h.cause(ctx, rerr, &idle))
		}
	}
}

// cause prefers the reason the request context was cancelled over the
// transport's own error text.
func (h *HTTP) cause(ctx context.Context, err error, idle *atomic.Bool) error {
	if idle.Load() {
		return ErrReadTimeout
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (h *HTTP) fail(op, url string, status int, err error) error {
	metrics.TransportErrors.WithLabelValues(op).Inc()
	return &data.TransportError{Op: op, URL: url, StatusCode: status, Err: err}
}
