package domain

// PresenceState is the online/offline state of an identity.
type PresenceState string

const (
	Online  PresenceState = "online"
	Offline PresenceState = "offline"
)

// Snapshot maps every known identity to its current presence state.
type Snapshot map[string]PresenceState
