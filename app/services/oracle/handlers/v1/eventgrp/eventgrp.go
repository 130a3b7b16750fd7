// Package eventgrp maintains the handler streaming oracle events over a
// websocket.
package eventgrp

import (
	"context"
	"errors"
	"net/http"
	"time"

	v1 "github.com/alex-kampa/realitycheck/business/web/v1"
	"github.com/alex-kampa/realitycheck/foundation/events"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the event stream.
type Handlers struct {
	Log  *zap.SugaredLogger
	WS   websocket.Upgrader
	Evts *events.Events
}

// Events handles a web socket to provide events to a client. The question
// and source query parameters narrow the events sent.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	filters, err := parseFilters(r)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, filters...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	h.Log.Infow("events", "traceid", v.TraceID, "status", "client connected", "clients", h.Evts.Len())

	for {
		select {
		case ev, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(ev); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// parseFilters builds the event filters asked for in the query string.
func parseFilters(r *http.Request) ([]events.Filter, error) {
	var filters []events.Filter

	if q := r.URL.Query().Get("question"); q != "" {
		b, err := hexutil.Decode(q)
		if err != nil || len(b) != 32 {
			return nil, errors.New("question must be a 32 byte hex id")
		}
		filters = append(filters, events.ForQuestion(hexutil.Encode(b)))
	}

	if src := r.URL.Query().Get("source"); src != "" {
		filters = append(filters, events.FromSource(src))
	}

	return filters, nil
}
