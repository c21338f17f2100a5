package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/tinoosan/modelkeep/internal/reqid"
)

const eventWriteTimeout = 10 * time.Second

// Events streams a model's progress events over a websocket. The stream ends
// with a normal closure after the terminal event of the next or current
// download. Client messages are ignored.
func (h *ModelHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	sub, err := h.svc.Subscribe(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	defer sub.Close()

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		markErr(w, errors.Join(ErrWebsocket, err))
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	l := reqid.Logger(r.Context(), h.l).With("model_id", id)
	ctx := c.CloseRead(r.Context())
	sent := 0
	for {
		select {
		case <-ctx.Done():
			l.Debug("event stream closed by client", "sent", sent)
			return
		case e, ok := <-sub.C():
			if !ok {
				_ = c.Close(websocket.StatusNormalClosure, "")
				l.Debug("event stream finished", "sent", sent)
				return
			}
			wctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := wsjson.Write(wctx, c, e)
			cancel()
			if err != nil {
				l.Warn("write progress event", "err", err)
				return
			}
			sent++
		}
	}
}
