package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ErrStopWatching stops WatchEvents without reporting an error.
var ErrStopWatching = errors.New("stop watching events")

type Event struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Round     uint64         `json:"round,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

func (sdk *propSDK) WatchEvents(ctx context.Context, kinds []string, fn func(Event) error) error {
	u, err := url.Parse(sdk.nodeURL + "/events")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if len(kinds) > 0 {
		u.RawQuery = url.Values{"kind": {strings.Join(kinds, ",")}}.Encode()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if t, ok := sdk.client.Transport.(*http.Transport); ok {
		dialer.TLSClientConfig = t.TLSClientConfig
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if resp != nil {
			return &Error{StatusCode: resp.StatusCode}
		}

		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		var e Event
		if err := json.Unmarshal(msg, &e); err != nil {
			return err
		}
		switch err := fn(e); {
		case errors.Is(err, ErrStopWatching):
			return nil
		case err != nil:
			return err
		}
	}
}
