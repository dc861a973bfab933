package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type stubAuth struct{}

func (stubAuth) Login(string, string) (services.Token, error) {
	return "", errors.ErrInvalidCredentials
}

func (stubAuth) Authenticate(token string) (string, error) {
	if token == "valid" {
		return "alice", nil
	}
	return "", errors.ErrInvalidToken
}

// drainingChat pushes a fixed backlog into the sink during Connect, the way
// a reconnect drains the identity's mailbox before registering returns. A
// full buffer is retried briefly, so the backlog only gets through when
// something is already consuming the sink while the connect is in flight.
type drainingChat struct {
	backlog int
	err     error
}

func (c *drainingChat) Connect(_ context.Context, _ string, sink contract.Sink) error {
	for i := 0; i < c.backlog; i++ {
		frame := domain.NewMessageFrame("bob", fmt.Sprintf("backlog-%03d", i))
		deadline := time.Now().Add(2 * time.Second)
		for {
			err := sink.Deliver(frame)
			if err == nil {
				break
			}
			if time.Now().After(deadline) {
				c.err = err
				return err
			}
			time.Sleep(2 * time.Millisecond)
		}
	}
	return nil
}

func (c *drainingChat) Disconnect(context.Context, string) error { return nil }

func (c *drainingChat) Release(context.Context, string, contract.Sink) error { return nil }

func (c *drainingChat) SendDirect(context.Context, string, string, string) error { return nil }

func (c *drainingChat) SendGroup(context.Context, string, string, string) error { return nil }
func (c *drainingChat) PresenceSnapshot(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, nil
}
func (c *drainingChat) GroupHistory(string) ([]domain.TranscriptRecord, error) { return nil, nil }
func (c *drainingChat) SearchGroup(context.Context, string, string, int) ([]domain.TranscriptRecord, error) {
	return nil, nil
}

func TestHandler_Drains_A_Backlog_Larger_Than_The_Sink_Buffer(t *testing.T) {
	// Given a connect that has far more pending messages than the sink buffers
	req := require.New(t)
	chat := &drainingChat{backlog: 100}
	handler := NewHandler(stubAuth{}, chat, slog.Default(), HandlerOptions{SinkBuffer: 8})
	server := httptest.NewServer(handler)
	defer server.Close()

	// When an authenticated client connects
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?token=valid"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer conn.Close()

	// Then every pending message arrives, in order
	for i := 0; i < chat.backlog; i++ {
		req.NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
		var frame struct {
			Type domain.FrameType      `json:"type"`
			Data domain.MessagePayload `json:"data"`
		}
		req.NoError(conn.ReadJSON(&frame))
		req.Equal(domain.FrameMessage, frame.Type)
		req.Equal(fmt.Sprintf("backlog-%03d", i), frame.Data.Text)
	}
	req.NoError(chat.err)
}

func TestHandler_Rejects_A_Bad_Token_Before_Upgrading(t *testing.T) {
	// Given a handler and a token that does not authenticate
	req := require.New(t)
	handler := NewHandler(stubAuth{}, &drainingChat{}, slog.Default(), HandlerOptions{})
	server := httptest.NewServer(handler)
	defer server.Close()

	// When the client presents it
	resp, err := http.Get(server.URL + "/?token=forged")
	req.NoError(err)
	defer resp.Body.Close()

	// Then the request is refused before any upgrade happens
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}
