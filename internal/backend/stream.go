package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/restrainapp/restrain/internal/wire"
)

const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Stream subscribes to the backend's row-change feed over a websocket.
// One subscription carries both entity streams (habits and habit_entries)
// scoped to the authenticated user.
type Stream struct {
	BaseURL string // http(s) base; converted to ws(s) at dial time
	APIKey  string
}

// NewStream creates a change-feed subscriber.
func NewStream(baseURL, apiKey string) *Stream {
	return &Stream{BaseURL: baseURL, APIKey: apiKey}
}

// Subscribe opens the feed for one user and returns a channel of change
// events. The channel is closed when ctx is cancelled. Connection drops are
// handled internally with capped backoff; consumers only ever see events.
func (s *Stream) Subscribe(ctx context.Context, userID string) (<-chan wire.ChangeEvent, error) {
	wsURL, err := s.feedURL(userID)
	if err != nil {
		return nil, err
	}

	ch := make(chan wire.ChangeEvent, 16)
	go s.run(ctx, wsURL, ch)
	return ch, nil
}

func (s *Stream) feedURL(userID string) (string, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/changes"
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Stream) run(ctx context.Context, wsURL string, ch chan<- wire.ChangeEvent) {
	defer close(ch)

	backoff := reconnectBase
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.readConn(ctx, wsURL, ch, func() { backoff = reconnectBase })
		if ctx.Err() != nil {
			return
		}
		slog.Warn("change feed disconnected", "err", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, reconnectMax)
	}
}

// readConn dials once and pumps events until the connection fails.
// onOpen is called after a successful dial so the caller can reset backoff.
func (s *Stream) readConn(ctx context.Context, wsURL string, ch chan<- wire.ChangeEvent, onOpen func()) error {
	header := http.Header{}
	if s.APIKey != "" {
		header.Set("Authorization", "Bearer "+s.APIKey)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	onOpen()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var ev wire.ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("change feed: bad frame", "err", err)
			continue
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
