package runtime

import (
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceTable_Starts_All_Offline(t *testing.T) {
	req := require.New(t)

	// Given a table over three identities
	table := newPresenceTable([]string{"alice", "bob", "carol"})

	// Then every identity exists and is offline
	snap := table.snapshot()
	req.Len(snap, 3)
	for identity, state := range snap {
		req.Equal(domain.Offline, state, identity)
	}
	req.Zero(table.onlineCount())
}

func TestPresenceTable_Register_Transitions_Online(t *testing.T) {
	req := require.New(t)
	table := newPresenceTable([]string{"alice"})
	sink := &fakeSink{}

	// When
	previous := table.register("alice", sink)

	// Then
	req.Nil(previous)
	req.True(table.isOnline("alice"))
	current, online := table.sink("alice")
	req.True(online)
	req.Same(sink, current.(*fakeSink))
}

func TestPresenceTable_Register_Returns_Replaced_Sink(t *testing.T) {
	req := require.New(t)
	table := newPresenceTable([]string{"alice"})
	first := &fakeSink{}
	second := &fakeSink{}

	// Given alice already online through first
	table.register("alice", first)

	// When she registers again through second
	previous := table.register("alice", second)

	// Then the replaced sink is surfaced and the new one is held
	req.Same(first, previous.(*fakeSink))
	current, _ := table.sink("alice")
	req.Same(second, current.(*fakeSink))
}

func TestPresenceTable_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	table := newPresenceTable([]string{"alice"})
	sink := &fakeSink{}
	table.register("alice", sink)

	// When unregistering twice
	changed, released := table.unregister("alice")
	req.True(changed)
	req.Same(sink, released.(*fakeSink))

	changed, released = table.unregister("alice")

	// Then the second call is a no-op
	req.False(changed)
	req.Nil(released)
	req.False(table.isOnline("alice"))
}

func TestPresenceTable_Unknown_Identity_Never_Registers(t *testing.T) {
	req := require.New(t)
	table := newPresenceTable([]string{"alice"})

	// When a stranger registers
	table.register("mallory", &fakeSink{})

	// Then the table does not grow
	req.Len(table.snapshot(), 1)
	req.False(table.isOnline("mallory"))
}

func TestPresenceTable_Online_Lists_Only_Online_Sinks(t *testing.T) {
	req := require.New(t)
	table := newPresenceTable([]string{"alice", "bob", "carol"})
	table.register("alice", &fakeSink{})
	table.register("bob", &fakeSink{})
	table.unregister("bob")

	// Then
	online := table.online()
	req.Len(online, 1)
	req.Contains(online, "alice")
	req.Equal(1, table.onlineCount())
}
