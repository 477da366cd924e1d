package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
)

const kindKey = "kind"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamEvents upgrades the request and forwards coordinator events as JSON
// text frames until the client goes away. A comma separated kind query
// narrows the stream.
func streamEvents(svc coordinator.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kinds []events.Kind
		if q := r.URL.Query().Get(kindKey); q != "" {
			for k := range strings.SplitSeq(q, ",") {
				kinds = append(kinds, events.Kind(strings.TrimSpace(k)))
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade event stream", slog.Any("error", err))

			return
		}
		defer func() { _ = conn.Close() }()

		ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
		defer cancel()

		// Reading is only needed to notice the close frame.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		sub := svc.Subscribe(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub:
				if !ok {
					return
				}
				if len(kinds) > 0 && !slices.Contains(kinds, e.Kind) {
					continue
				}
				msg, err := json.Marshal(e)
				if err != nil {
					logger.Warn("failed to encode event", slog.String("kind", string(e.Kind)), slog.Any("error", err))

					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}
	}
}
