package ws

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
)

// inboundFrame is the client-to-server wire format. Exactly one of Recipient
// or Group may be set, matching the frame type.
type inboundFrame struct {
	Type      domain.FrameType `json:"type"`
	Recipient string           `json:"recipient,omitempty"`
	Group     string           `json:"group,omitempty"`
	Text      string           `json:"text"`
}

// decodeInbound parses and validates one inbound frame. Undecodable data and
// ambiguous addressing both surface as ErrMalformedFrame; an unrecognized
// type is left to the caller, which logs and drops it.
func decodeInbound(data []byte) (inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return inboundFrame{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}

	switch frame.Type {
	case domain.FrameDirect:
		if frame.Recipient == "" || frame.Group != "" {
			return inboundFrame{}, fmt.Errorf("%w: direct frame must carry a recipient and no group", errors.ErrMalformedFrame)
		}
	case domain.FrameGroup:
		if frame.Group == "" || frame.Recipient != "" {
			return inboundFrame{}, fmt.Errorf("%w: group frame must carry a group and no recipient", errors.ErrMalformedFrame)
		}
	}
	return frame, nil
}
