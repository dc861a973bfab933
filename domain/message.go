// Package domain contains core concepts of the chat relay.
// This file defines Message events and their addressing rules.
// Messages are immutable and validated at the routing boundary.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one routed chat message. Exactly one of Recipient or
// Group is set for an accepted message.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Recipient string
	Group     string
	Text      string
	CreatedAt time.Time
}

// Direct reports whether the message is addressed to a single identity.
func (m Message) Direct() bool {
	return m.Recipient != "" && m.Group == ""
}

// AmbiguousAddressing reports whether the message violates the
// one-of-recipient-or-group invariant. Such messages are rejected,
// never resolved by guessing a precedence.
func (m Message) AmbiguousAddressing() bool {
	both := m.Recipient != "" && m.Group != ""
	neither := m.Recipient == "" && m.Group == ""
	return both || neither
}
