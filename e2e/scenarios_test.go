package e2e

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type testRelaySuite struct {
	BaseRelaySuite
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, &testRelaySuite{})
}

// Offline direct messages wait in the mailbox and are drained exactly once
// on reconnect.
func (s *testRelaySuite) TestOfflineDirectMessageIsDrainedOnConnect() {
	s.step("alice online, bob offline")
	alice := s.connect("alice")
	defer alice.close()

	s.step("alice sends a direct message to the offline bob")
	alice.sendDirect("bob", "hi")

	s.step("bob connects and receives the deferred message")
	bob := s.connect("bob")
	message := bob.nextMessage()
	s.Require().Equal("alice", message.Sender)
	s.Require().Equal("hi", message.Text)
	bob.close()

	s.step("a reconnect delivers nothing: the mailbox was emptied")
	bob = s.connect("bob")
	defer bob.close()
	bob.expectSilence()
}

// A group message reaches every online member, skips offline ones and lands
// in the transcript.
func (s *testRelaySuite) TestGroupFanOutAndTranscript() {
	s.step("alice and bob online, carol offline")
	alice := s.connect("alice")
	defer alice.close()
	bob := s.connect("bob")
	defer bob.close()

	s.step("alice posts to the team group")
	alice.sendGroup("team", "standup")

	s.step("both online members receive exactly one frame")
	for _, member := range []*relayClient{alice, bob} {
		message := member.nextMessage()
		s.Require().Equal("alice", message.Sender)
		s.Require().Equal("standup", message.Text)
	}

	s.step("carol connects later and receives no live frame")
	carol := s.connect("carol")
	defer carol.close()
	carol.expectSilence()

	s.step("the transcript holds the record")
	resp, err := http.Get(s.url("/groups/team/messages"))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var history []domain.TranscriptRecord
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&history))
	s.Require().Len(history, 1)
	s.Require().Equal("alice", history[0].Sender)
	s.Require().Equal("standup", history[0].Text)

	s.step("the transcript is searchable")
	searchResp, err := http.Get(s.url("/groups/team/search?q=standup"))
	s.Require().NoError(err)
	defer searchResp.Body.Close()
	var hits []domain.TranscriptRecord
	s.Require().NoError(json.NewDecoder(searchResp.Body).Decode(&hits))
	s.Require().Len(hits, 1)
}

// An identity outside the roster is turned away at connect with a policy
// violation close and zero side effects.
func (s *testRelaySuite) TestUnknownIdentityIsRejectedWithoutSideEffects() {
	s.step("alice online as a witness")
	alice := s.connect("alice")
	defer alice.close()

	s.step("mallory presents a validly signed token for an unknown identity")
	token, err := s.tokens.Generate("mallory")
	s.Require().NoError(err)
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(token), nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.step("the relay closes the session with a policy violation")
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(s.Config.ReceiveTimeout)))
	_, _, err = conn.ReadMessage()
	s.Require().Error(err)
	s.Require().True(websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected a policy violation close, got: %v", err)

	s.step("the presence table never learned about mallory")
	resp, err := http.Get(s.url("/status"))
	s.Require().NoError(err)
	defer resp.Body.Close()
	var snapshot domain.Snapshot
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&snapshot))
	s.Require().NotContains(snapshot, "mallory")
	s.Require().Equal(domain.Online, snapshot["alice"])

	s.step("alice heard no broadcast about the attempt")
	alice.expectSilence()
}

// Sending to an unlisted recipient fails cleanly: no mailbox entry, sender
// connection untouched.
func (s *testRelaySuite) TestUnknownRecipientFailsWithoutSideEffects() {
	s.step("alice online")
	alice := s.connect("alice")
	defer alice.close()

	s.step("the send endpoint reports the unknown recipient")
	token, err := s.tokens.Generate("alice")
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPost, s.url("/messages"),
		strings.NewReader(`{"recipient":"nobody","text":"hello?"}`))
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+string(token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusNotFound, resp.StatusCode)

	s.step("the same frame over websocket is dropped silently")
	alice.sendDirect("nobody", "hello?")

	s.step("alice's connection survives and still routes")
	alice.sendDirect("alice", "note to self")
	message := alice.nextMessage()
	s.Require().Equal("note to self", message.Text)
}

// A backlog bigger than one sink buffer must survive the reconnect drain
// intact: every pending message arrives, in original order, and the fresh
// connection stays up.
func (s *testRelaySuite) TestLargeBacklogIsDrainedInOrderOnConnect() {
	const backlog = 50

	s.step("alice fills bob's mailbox well past one sink buffer")
	alice := s.connect("alice")
	defer alice.close()
	for i := 0; i < backlog; i++ {
		alice.sendDirect("bob", fmt.Sprintf("backlog-%02d", i))
	}
	// Quiet window doubles as a flush: all sends are routed before bob dials.
	alice.expectSilence()

	s.step("bob connects and receives the entire backlog in order")
	bob := s.connect("bob")
	defer bob.close()
	for i := 0; i < backlog; i++ {
		message := bob.nextMessage()
		s.Require().Equal("alice", message.Sender)
		s.Require().Equal(fmt.Sprintf("backlog-%02d", i), message.Text)
	}

	s.step("bob is still online after the drain")
	status := bob.nextStatus()
	s.Require().Equal(domain.Online, status["bob"])
}
