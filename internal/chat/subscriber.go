// Package chat receives live group messages over the backend's WebSocket.
// Messages arrive on a channel so the UI loop can fold them into the same
// synchronous update path as user input. Sending stays on REST.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"companion/internal/model"
)

type Subscriber struct {
	baseURL string
	dialer  *websocket.Dialer
	log     *slog.Logger
}

// NewSubscriber takes the WebSocket base, e.g. "ws://localhost:8000".
func NewSubscriber(baseURL string, log *slog.Logger) *Subscriber {
	if log == nil {
		log = slog.Default()
	}
	return &Subscriber{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Subscribe connects to the group's message stream. The returned channel is
// closed when the context is canceled or the connection drops; there is no
// automatic reconnect, the caller resubscribes when it reopens the chat.
func (s *Subscriber) Subscribe(ctx context.Context, groupID uuid.UUID) (<-chan model.ChatMessage, error) {
	endpoint := fmt.Sprintf("%s/api/ws/%s", s.baseURL, url.PathEscape(groupID.String()))

	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing chat socket: %w", err)
	}

	messages := make(chan model.ChatMessage, 16)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(messages)
		defer conn.Close()
		for {
			var msg model.ChatMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil {
					s.log.Warn("chat socket closed", "group", groupID, "error", err)
				}
				return
			}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.log.Debug("subscribed to group chat", "group", groupID)
	return messages, nil
}
