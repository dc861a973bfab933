package e2e

import (
	"chat-relay/auth"
	"chat-relay/directory"
	"chat-relay/domain"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/search"
	"chat-relay/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

const e2eTokenSecret = "e2e-only-signing-secret"

// BaseRelaySuite boots the whole relay in-process for every test: in-memory
// BadgerDB, search index, router actor and the HTTP/websocket surface behind
// an httptest server.
type BaseRelaySuite struct {
	suite.Suite
	Config Config

	db     *badger.DB
	index  *search.Index
	server *httptest.Server
	cancel context.CancelFunc
	tokens auth.Tokens
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseRelaySuite) SetupTest() {
	log := logs.GetLoggerFromLevel(slog.LevelWarn)

	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	dir := directory.New(
		[]string{"alice", "bob", "carol"},
		map[string][]string{"team": {"alice", "bob", "carol"}},
	)
	users := repositories.NewUserRepository(db)
	for name, password := range map[string]string{
		"alice": "password1", "bob": "password2", "carol": "password3",
	} {
		hash, err := auth.HashPassword(password)
		s.Require().NoError(err)
		s.Require().NoError(users.SeedUser(name, hash))
	}

	s.index, err = search.NewInMemoryIndex(log)
	s.Require().NoError(err)
	transcripts := repositories.NewTranscriptRepository(db, log)

	const mailboxLimit = 64
	router := runtime.NewRouter(log, dir, runtime.Options{
		Transcripts:       transcripts,
		Index:             s.index,
		Metrics:           observability.NewWith(prometheus.NewRegistry()),
		CommandBufferSize: 64,
		MailboxLimit:      mailboxLimit,
	})
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = router.Run(ctx) }()

	s.tokens = auth.NewTokens(e2eTokenSecret, time.Hour)
	authService := services.NewAuthService(users, s.tokens)
	chatService := services.NewChatService(router, dir, transcripts, s.index)

	// The sink buffer must cover a full mailbox drain, same rule the server
	// enforces at config load.
	wsHandler := ws.NewHandler(authService, chatService, log, ws.HandlerOptions{SinkBuffer: mailboxLimit})
	s.server = httptest.NewServer(httpapi.NewRouter(authService, chatService, wsHandler, log, httpapi.Options{}))
}

func (s *BaseRelaySuite) TearDownTest() {
	s.server.Close()
	s.cancel()
	_ = s.index.Close()
	_ = s.db.Close()
}

func (s *BaseRelaySuite) url(path string) string {
	return s.server.URL + path
}

func (s *BaseRelaySuite) wsURL(token string) string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + token
}

func (s *BaseRelaySuite) step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// relayClient is one live websocket session in a scenario.
type relayClient struct {
	suite *BaseRelaySuite
	conn  *websocket.Conn
}

// connect dials the relay as the given identity with a freshly signed token.
func (s *BaseRelaySuite) connect(identity string) *relayClient {
	token, err := s.tokens.Generate(identity)
	s.Require().NoError(err)

	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(token), nil)
	s.Require().NoError(err, "Failed to open websocket session for "+identity)
	return &relayClient{suite: s, conn: conn}
}

func (c *relayClient) close() {
	_ = c.conn.Close()
}

func (c *relayClient) sendDirect(recipient, text string) {
	c.suite.Require().NoError(c.conn.WriteJSON(map[string]string{
		"type": "direct", "recipient": recipient, "text": text,
	}))
}

func (c *relayClient) sendGroup(group, text string) {
	c.suite.Require().NoError(c.conn.WriteJSON(map[string]string{
		"type": "group", "group": group, "text": text,
	}))
}

type receivedFrame struct {
	Type domain.FrameType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// nextMessage reads frames until a message frame arrives, skipping status
// broadcasts along the way.
func (c *relayClient) nextMessage() domain.MessagePayload {
	deadline := time.Now().Add(c.suite.Config.ReceiveTimeout)
	for {
		c.suite.Require().NoError(c.conn.SetReadDeadline(deadline))
		var frame receivedFrame
		c.suite.Require().NoError(c.conn.ReadJSON(&frame), "no message frame before the timeout")
		if frame.Type != domain.FrameMessage {
			continue
		}
		var payload domain.MessagePayload
		c.suite.Require().NoError(json.Unmarshal(frame.Data, &payload))
		return payload
	}
}

// nextStatus reads frames until a status broadcast arrives.
func (c *relayClient) nextStatus() domain.Snapshot {
	deadline := time.Now().Add(c.suite.Config.ReceiveTimeout)
	for {
		c.suite.Require().NoError(c.conn.SetReadDeadline(deadline))
		var frame receivedFrame
		c.suite.Require().NoError(c.conn.ReadJSON(&frame), "no status frame before the timeout")
		if frame.Type != domain.FrameStatus {
			continue
		}
		var snapshot domain.Snapshot
		c.suite.Require().NoError(json.Unmarshal(frame.Data, &snapshot))
		return snapshot
	}
}

// expectSilence asserts that no message frame arrives within the configured
// quiet window. Status broadcasts are allowed through.
func (c *relayClient) expectSilence() {
	deadline := time.Now().Add(c.suite.Config.SilenceWindow)
	for {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return
		}
		var frame receivedFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		c.suite.Require().NotEqual(domain.FrameMessage, frame.Type,
			"received a message frame while expecting silence")
	}
}
