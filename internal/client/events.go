package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"nhooyr.io/websocket"

	"github.com/tinoosan/modelkeep/internal/data"
)

// Events connects to the model's progress websocket. The returned channel is
// closed after the terminal event, when the connection ends or when ctx is
// cancelled.
func (c *Client) Events(ctx context.Context, modelID string) (<-chan data.ProgressEvent, error) {
	wsURL := c.endpoint("/v1/models/" + url.PathEscape(modelID) + "/events")
	switch wsURL.Scheme {
	case "http":
		wsURL.Scheme = "ws"
	case "https":
		wsURL.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme: %s", wsURL.Scheme)
	}
	opts := &websocket.DialOptions{HTTPHeader: http.Header{}}
	if c.token != "" {
		opts.HTTPHeader.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.Dial(ctx, wsURL.String(), opts)
	if err != nil {
		return nil, err
	}
	ch := make(chan data.ProgressEvent, 8)
	go func() {
		defer close(ch)
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()
		for {
			_, raw, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var e data.ProgressEvent
			if err := json.Unmarshal(raw, &e); err != nil {
				continue
			}
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
			if e.Status.Terminal() {
				return
			}
		}
	}()
	return ch, nil
}
