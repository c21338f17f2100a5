package transport

import (
	"context"
	"io"
)

// Transport performs remote length probes and streaming fetches.
type Transport interface {
	// ContentLength returns the byte length of the resource, or 0 when the
	// server does not report one.
	ContentLength(ctx context.Context, url string) (int64, error)
	// Fetch streams the resource into dst and calls progress after every
	// chunk with the bytes written so far for this resource. It returns the
	// bytes written even when it fails.
	Fetch(ctx context.Context, url string, dst io.Writer, progress func(written int64)) (int64, error)
}
