package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
)

// presenceTable tracks the two-state machine of every known identity.
// An entry exists for each directory identity from process start and is never
// deleted; only register/unregister transition it. The table is private to
// the router and only ever touched from the actor loop.
type presenceTable struct {
	entries map[string]*presenceEntry
}

type presenceEntry struct {
	state domain.PresenceState
	sink  contract.Sink
}

func newPresenceTable(identities []string) *presenceTable {
	entries := make(map[string]*presenceEntry, len(identities))
	for _, id := range identities {
		entries[id] = &presenceEntry{state: domain.Offline}
	}
	return &presenceTable{entries: entries}
}

// register transitions the identity to online and stores its sink.
// It returns the previously held sink when the identity was already online,
// so the caller can release the replaced connection.
func (t *presenceTable) register(identity string, sink contract.Sink) (previous contract.Sink) {
	entry, ok := t.entries[identity]
	if !ok {
		return nil
	}
	previous = entry.sink
	entry.state = domain.Online
	entry.sink = sink
	return previous
}

// unregister transitions the identity to offline and discards its sink.
// It reports whether the state actually changed, making the operation
// idempotent for callers.
func (t *presenceTable) unregister(identity string) (changed bool, released contract.Sink) {
	entry, ok := t.entries[identity]
	if !ok || entry.state == domain.Offline {
		return false, nil
	}
	released = entry.sink
	entry.state = domain.Offline
	entry.sink = nil
	return true, released
}

func (t *presenceTable) isOnline(identity string) bool {
	entry, ok := t.entries[identity]
	return ok && entry.state == domain.Online
}

// sink returns the live connection handle of an online identity.
func (t *presenceTable) sink(identity string) (contract.Sink, bool) {
	entry, ok := t.entries[identity]
	if !ok || entry.state != domain.Online {
		return nil, false
	}
	return entry.sink, true
}

// snapshot copies the full identity → state mapping.
func (t *presenceTable) snapshot() domain.Snapshot {
	snap := make(domain.Snapshot, len(t.entries))
	for id, entry := range t.entries {
		snap[id] = entry.state
	}
	return snap
}

// online returns the sinks of every currently-online identity.
func (t *presenceTable) online() map[string]contract.Sink {
	out := make(map[string]contract.Sink)
	for id, entry := range t.entries {
		if entry.state == domain.Online {
			out[id] = entry.sink
		}
	}
	return out
}

func (t *presenceTable) onlineCount() int {
	n := 0
	for _, entry := range t.entries {
		if entry.state == domain.Online {
			n++
		}
	}
	return n
}
