// hub is the realtime relay: it owns room membership and call state and
// fans inbound events out to the right peers. Nothing here is persisted;
// a disconnected peer simply misses events.
package hub

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Faysoula/SyncSolve-sub000/internal/events"
)

type Hub struct {
	logger   *slog.Logger
	registry *Registry
	calls    *CallTracker
}

// New creates a hub with fresh registries. Instances are independent, so
// tests can spin up as many isolated hubs as they need.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		registry: NewRegistry(),
		calls:    NewCallTracker(),
	}
}

// Registry exposes the room registry to the connection handshake path.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Register adds a freshly upgraded connection to the handle directory.
func (h *Hub) Register(c *Client) {
	h.registry.Register(c)
	h.logger.Info("client connected", "handle_id", c.ID, "user_id", c.UserID)
}

// HandleEvent dispatches one inbound event. Events with payloads that fail
// to decode are logged and dropped; the connection is never torn down for a
// bad frame.
func (h *Hub) HandleEvent(c *Client, evt events.ClientEvent) {
	switch evt.Type {
	case events.RoomJoin:
		h.handleRoomJoin(c, evt)
	case events.CodeChange, events.CursorMove:
		h.relayToCodeRoom(c, evt)
	case events.ChatMessage, events.ChatTyping:
		h.relayToTeamRoom(c, evt)
	case events.CallStart:
		h.handleCallStart(c, evt)
	case events.CallJoin:
		h.handleCallJoin(c, evt)
	case events.CallLeave:
		h.handleCallLeave(c, evt)
	case events.CallEnd:
		h.handleCallEnd(c, evt)
	case events.CallOffer, events.CallAnswer, events.CallICECandidate:
		h.relaySignal(c, evt)
	default:
		h.logger.Warn("dropping unknown event", "handle_id", c.ID, "event", evt.Type)
	}
}

// Disconnect removes the client from every room first, then runs call
// cleanup; the call tracker's notifications rely on room membership already
// being current.
func (h *Hub) Disconnect(c *Client) {
	left := h.registry.Disconnect(c)

	teams := make(map[int64]struct{})
	for _, roomID := range left {
		if teamID, ok := callRoomTeamID(roomID); ok {
			teams[teamID] = struct{}{}
		}
	}
	// An initiator who never sent call:join occupies no call room but is
	// still a participant; the tracker knows about them.
	for _, teamID := range h.calls.TeamsWithParticipant(c.UserID) {
		teams[teamID] = struct{}{}
	}

	for teamID := range teams {
		h.finishLeave(c, teamID)
	}

	h.logger.Info("client disconnected", "handle_id", c.ID, "user_id", c.UserID, "rooms", len(left))
}

func (h *Hub) handleRoomJoin(c *Client, evt events.ClientEvent) {
	var p events.RoomJoinPayload
	if !h.decode(c, evt, &p) {
		return
	}

	codeRoom := CodeRoomID(p.SessionID, p.ProblemID)
	h.registry.Join(codeRoom, c)
	h.registry.Join(TeamRoomID(p.TeamID), c)

	h.registry.Broadcast(codeRoom, events.ServerEvent{
		Type:    events.RoomPeerJoined,
		Payload: events.PeerJoinedPayload{UserID: c.UserID, HandleID: c.ID},
	}, c)
}

func (h *Hub) relayToCodeRoom(c *Client, evt events.ClientEvent) {
	var p events.CodeRoomPayload
	if !h.decode(c, evt, &p) {
		return
	}

	h.registry.Broadcast(CodeRoomID(p.SessionID, p.ProblemID), events.ServerEvent{
		Type:    evt.Type,
		Payload: evt.Payload,
	}, c)
}

func (h *Hub) relayToTeamRoom(c *Client, evt events.ClientEvent) {
	var p events.TeamPayload
	if !h.decode(c, evt, &p) {
		return
	}

	h.registry.Broadcast(TeamRoomID(p.TeamID), events.ServerEvent{
		Type:    evt.Type,
		Payload: evt.Payload,
	}, c)
}

func (h *Hub) handleCallStart(c *Client, evt events.ClientEvent) {
	var p events.TeamPayload
	if !h.decode(c, evt, &p) {
		return
	}

	h.calls.Start(p.TeamID, c.UserID)
	h.logger.Info("call started", "team_id", p.TeamID, "initiator_id", c.UserID)

	h.registry.Broadcast(TeamRoomID(p.TeamID), events.ServerEvent{
		Type:    events.CallStarted,
		Payload: events.CallStartedPayload{TeamID: p.TeamID, InitiatorID: c.UserID},
	}, c)
}

func (h *Hub) handleCallJoin(c *Client, evt events.ClientEvent) {
	var p events.TeamPayload
	if !h.decode(c, evt, &p) {
		return
	}

	// Enter the call room before the tracker records the join: anyone the
	// tracker picks as an offer target is then guaranteed to be addressable
	// in the room, even when two joins race.
	callRoom := CallRoomID(p.TeamID)
	h.registry.Join(callRoom, c)

	offerTo, hasOffer, ok := h.calls.Join(p.TeamID, c.UserID)
	if !ok {
		// Stale join against an idle team, e.g. the client raced a
		// call:ended notification.
		h.registry.Leave(callRoom, c.ID)
		h.logger.Info("ignoring call join with no active call", "team_id", p.TeamID, "user_id", c.UserID)
		return
	}

	if hasOffer {
		if target, found := h.registry.MemberByUser(callRoom, offerTo); found {
			target.Send(events.ServerEvent{
				Type:    events.CallCreateOffer,
				Payload: events.CreateOfferPayload{TeamID: p.TeamID, PeerID: c.UserID, HandleID: c.ID},
			})
		}
	}

	if participants, active := h.calls.Participants(p.TeamID); active {
		h.registry.Broadcast(callRoom, events.ServerEvent{
			Type:    events.CallParticipants,
			Payload: events.CallParticipantsPayload{TeamID: p.TeamID, Participants: participants},
		}, c)
	}
}

func (h *Hub) handleCallLeave(c *Client, evt events.ClientEvent) {
	var p events.TeamPayload
	if !h.decode(c, evt, &p) {
		return
	}

	h.registry.Leave(CallRoomID(p.TeamID), c.ID)
	h.finishLeave(c, p.TeamID)
}

// finishLeave applies the tracker transition for a participant that is
// already out of the call room, either via an explicit leave or a disconnect.
func (h *Hub) finishLeave(c *Client, teamID int64) {
	remaining, ended, ok := h.calls.Leave(teamID, c.UserID)
	if !ok {
		return
	}

	if ended {
		h.registry.Clear(CallRoomID(teamID))
		h.registry.Broadcast(TeamRoomID(teamID), events.ServerEvent{
			Type:    events.CallEnded,
			Payload: events.CallEndedPayload{TeamID: teamID},
		}, c)
		h.logger.Info("call ended, last participant left", "team_id", teamID)
		return
	}

	h.registry.Broadcast(CallRoomID(teamID), events.ServerEvent{
		Type:    events.CallParticipants,
		Payload: events.CallParticipantsPayload{TeamID: teamID, Participants: remaining},
	}, c)
}

func (h *Hub) handleCallEnd(c *Client, evt events.ClientEvent) {
	var p events.TeamPayload
	if !h.decode(c, evt, &p) {
		return
	}

	if !h.calls.End(p.TeamID) {
		return
	}

	h.registry.Clear(CallRoomID(p.TeamID))
	h.registry.Broadcast(TeamRoomID(p.TeamID), events.ServerEvent{
		Type:    events.CallEnded,
		Payload: events.CallEndedPayload{TeamID: p.TeamID},
	}, c)
	h.logger.Info("call ended explicitly", "team_id", p.TeamID, "by", c.UserID)
}

// relaySignal forwards an offer/answer/ICE payload to the single connection
// named in the payload. A target that already disconnected is a silent no-op.
func (h *Hub) relaySignal(c *Client, evt events.ClientEvent) {
	var p events.SignalPayload
	if !h.decode(c, evt, &p) {
		return
	}

	target, ok := h.registry.Lookup(p.To)
	if !ok {
		return
	}

	target.Send(events.ServerEvent{
		Type:    evt.Type,
		Payload: evt.Payload,
	})
}

func (h *Hub) decode(c *Client, evt events.ClientEvent, dst any) bool {
	if err := json.Unmarshal(evt.Payload, dst); err != nil {
		h.logger.Warn("dropping malformed event payload",
			"handle_id", c.ID,
			"event", evt.Type,
			"error", err)
		return false
	}
	return true
}

// callRoomTeamID extracts the team id from a "call-{team}" room id.
func callRoomTeamID(roomID string) (int64, bool) {
	rest, ok := strings.CutPrefix(roomID, "call-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
