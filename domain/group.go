package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named set of member identities with static membership.
// Membership is roster configuration loaded once at startup.
type Group struct {
	Name    string
	Members map[string]struct{}
}

// Has reports whether identity is a member of the group.
func (g Group) Has(identity string) bool {
	_, ok := g.Members[identity]
	return ok
}

// TranscriptRecord is one entry of a group's append-only history.
// Lang carries the ISO 639-1 code detected on the message body.
type TranscriptRecord struct {
	ID     uuid.UUID `json:"id"`
	Group  string    `json:"group"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Lang   string    `json:"lang,omitempty"`
	At     time.Time `json:"at"`
}
