package domain

// FrameType discriminates the wire frames exchanged with clients.
type FrameType string

const (
	// Inbound frame types.
	FrameDirect FrameType = "direct"
	FrameGroup  FrameType = "group"

	// Outbound frame types.
	FrameMessage FrameType = "message"
	FrameStatus  FrameType = "status"
)

// MessagePayload is the data part of an outbound message frame.
type MessagePayload struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// OutboundFrame is a server-to-client frame. Data holds a MessagePayload
// for message frames or a Snapshot for status frames.
type OutboundFrame struct {
	Type FrameType `json:"type"`
	Data any       `json:"data"`
}

// NewMessageFrame builds the delivery frame for one message.
func NewMessageFrame(sender, text string) OutboundFrame {
	return OutboundFrame{Type: FrameMessage, Data: MessagePayload{Sender: sender, Text: text}}
}

// NewStatusFrame builds a status broadcast frame from a presence snapshot.
func NewStatusFrame(snapshot Snapshot) OutboundFrame {
	return OutboundFrame{Type: FrameStatus, Data: snapshot}
}
