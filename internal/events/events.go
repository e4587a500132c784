// events defines the named events relayed over the realtime channel
// and the payload shapes the hub needs to inspect.
package events

import (
	"encoding/json"
)

// Client-to-server event names.
const (
	RoomJoin         = "room:join"
	CodeChange       = "code:change"
	CursorMove       = "cursor:move"
	ChatMessage      = "chat:message"
	ChatTyping       = "chat:typing"
	CallStart        = "call:start"
	CallJoin         = "call:join"
	CallLeave        = "call:leave"
	CallEnd          = "call:end"
	CallOffer        = "call:offer"
	CallAnswer       = "call:answer"
	CallICECandidate = "call:ice-candidate"
)

// Server-to-client event names.
const (
	RoomPeerJoined   = "room:peer-joined"
	CallStarted      = "call:started"
	CallParticipants = "call:participants"
	CallCreateOffer  = "call:create-offer"
	CallEnded        = "call:ended"
)

// ClientEvent is one inbound frame. Payload stays raw so relay-only events
// are forwarded verbatim without a decode/encode round trip.
type ClientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerEvent is one outbound frame.
type ServerEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RoomJoinPayload enters the code room for a (session, problem) pair and the
// team chat room in one step.
type RoomJoinPayload struct {
	SessionID int64 `json:"session_id"`
	ProblemID int64 `json:"problem_id"`
	TeamID    int64 `json:"team_id"`
}

// CodeRoomPayload is the addressing prefix of code:change and cursor:move;
// the rest of the payload is opaque to the hub.
type CodeRoomPayload struct {
	SessionID int64 `json:"session_id"`
	ProblemID int64 `json:"problem_id"`
}

// TeamPayload is the addressing prefix of chat and call lifecycle events.
type TeamPayload struct {
	TeamID int64 `json:"team_id"`
}

// SignalPayload is the addressing prefix of offer/answer/ICE relays. To names
// the target connection handle; the SDP or candidate body is opaque.
type SignalPayload struct {
	TeamID int64  `json:"team_id"`
	To     string `json:"to"`
}

// PeerJoinedPayload announces a new member of a code room.
type PeerJoinedPayload struct {
	UserID   int64  `json:"user_id"`
	HandleID string `json:"handle_id"`
}

// CallStartedPayload notifies a team that a call began.
type CallStartedPayload struct {
	TeamID      int64 `json:"team_id"`
	InitiatorID int64 `json:"initiator_id"`
}

// CallParticipantsPayload carries the current participant list of a call.
type CallParticipantsPayload struct {
	TeamID       int64   `json:"team_id"`
	Participants []int64 `json:"participants"`
}

// CreateOfferPayload instructs exactly one existing call participant to
// create a WebRTC offer for the peer that just joined.
type CreateOfferPayload struct {
	TeamID   int64  `json:"team_id"`
	PeerID   int64  `json:"peer_id"`
	HandleID string `json:"handle_id"`
}

// CallEndedPayload notifies a team that its call ended.
type CallEndedPayload struct {
	TeamID int64 `json:"team_id"`
}
