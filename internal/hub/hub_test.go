package hub

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faysoula/SyncSolve-sub000/internal/events"
)

func clientEvent(t *testing.T, eventType string, payload any) events.ClientEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return events.ClientEvent{Type: eventType, Payload: raw}
}

func joinCodeRoom(t *testing.T, h *Hub, c *Client, sessionID, problemID, teamID int64) {
	t.Helper()
	h.HandleEvent(c, clientEvent(t, events.RoomJoin, events.RoomJoinPayload{
		SessionID: sessionID,
		ProblemID: problemID,
		TeamID:    teamID,
	}))
}

func TestRoomJoinAnnouncesPeer(t *testing.T) {
	h := New(testLogger())

	first := newTestClient(h, 1)
	second := newTestClient(h, 2)

	joinCodeRoom(t, h, first, 42, 9, 7)
	drain(first)

	joinCodeRoom(t, h, second, 42, 9, 7)

	got := drain(first)
	require.Len(t, got, 1)
	assert.Equal(t, events.RoomPeerJoined, got[0].Type)
	payload := got[0].Payload.(events.PeerJoinedPayload)
	assert.Equal(t, int64(2), payload.UserID)
	assert.Equal(t, second.ID, payload.HandleID)

	assert.Empty(t, drain(second), "the joiner must not be told about itself")
}

func TestCodeChangeRelaysVerbatim(t *testing.T) {
	h := New(testLogger())

	author := newTestClient(h, 1)
	peer := newTestClient(h, 2)
	outsider := newTestClient(h, 3)

	joinCodeRoom(t, h, author, 42, 9, 7)
	joinCodeRoom(t, h, peer, 42, 9, 7)
	joinCodeRoom(t, h, outsider, 42, 10, 7) // different problem, different room
	drain(author)
	drain(peer)
	drain(outsider)

	raw := json.RawMessage(`{"session_id":42,"problem_id":9,"code":"print(3)","rev":17}`)
	h.HandleEvent(author, events.ClientEvent{Type: events.CodeChange, Payload: raw})

	got := drain(peer)
	require.Len(t, got, 1)
	assert.Equal(t, events.CodeChange, got[0].Type)
	assert.JSONEq(t, string(raw), string(got[0].Payload.(json.RawMessage)), "payload must be relayed untouched")

	assert.Empty(t, drain(author), "no self-echo")
	assert.Empty(t, drain(outsider), "code events stay inside their room")
}

func TestChatRelaysToTeamRoomOnly(t *testing.T) {
	h := New(testLogger())

	sender := newTestClient(h, 1)
	teammate := newTestClient(h, 2)
	stranger := newTestClient(h, 3)

	joinCodeRoom(t, h, sender, 42, 9, 7)
	joinCodeRoom(t, h, teammate, 42, 9, 7)
	joinCodeRoom(t, h, stranger, 50, 9, 8)
	drain(sender)
	drain(teammate)
	drain(stranger)

	h.HandleEvent(sender, clientEvent(t, events.ChatMessage, map[string]any{
		"team_id": 7,
		"text":    "anyone solved it yet?",
	}))

	assert.Len(t, drain(teammate), 1)
	assert.Empty(t, drain(sender))
	assert.Empty(t, drain(stranger))
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	h := New(testLogger())

	c := newTestClient(h, 1)
	peer := newTestClient(h, 2)
	joinCodeRoom(t, h, c, 42, 9, 7)
	joinCodeRoom(t, h, peer, 42, 9, 7)
	drain(c)
	drain(peer)

	// Must not panic and must not reach anyone.
	h.HandleEvent(c, events.ClientEvent{Type: events.ChatMessage, Payload: json.RawMessage(`{"team_id":"seven"`)})
	h.HandleEvent(c, events.ClientEvent{Type: events.CallJoin, Payload: nil})
	h.HandleEvent(c, events.ClientEvent{Type: "no:such:event", Payload: json.RawMessage(`{}`)})

	assert.Empty(t, drain(peer))
}

func TestSignalIsUnicastToNamedPeer(t *testing.T) {
	h := New(testLogger())

	caller := newTestClient(h, 1)
	callee := newTestClient(h, 2)
	bystander := newTestClient(h, 3)

	h.HandleEvent(caller, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(caller, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(callee, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(bystander, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	drain(caller)
	drain(callee)
	drain(bystander)

	h.HandleEvent(caller, clientEvent(t, events.CallOffer, map[string]any{
		"team_id": 7,
		"to":      callee.ID,
		"sdp":     "v=0 ...",
	}))

	got := drain(callee)
	require.Len(t, got, 1)
	assert.Equal(t, events.CallOffer, got[0].Type)

	assert.Empty(t, drain(caller))
	assert.Empty(t, drain(bystander), "signaling payloads are never broadcast")
}

func TestSignalToGoneHandleIsNoop(t *testing.T) {
	h := New(testLogger())
	c := newTestClient(h, 1)

	h.HandleEvent(c, clientEvent(t, events.CallAnswer, events.SignalPayload{
		TeamID: 7,
		To:     "no-such-handle",
	}))
	// Reaching here without a panic is the assertion.
	assert.Empty(t, drain(c))
}

func TestCallJoinSendsCreateOfferToEarliestMember(t *testing.T) {
	h := New(testLogger())

	initiator := newTestClient(h, 100)
	second := newTestClient(h, 200)
	third := newTestClient(h, 300)

	h.HandleEvent(initiator, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(initiator, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(second, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	drain(initiator)
	drain(second)

	h.HandleEvent(third, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))

	var offers int
	for _, evt := range drain(initiator) {
		if evt.Type == events.CallCreateOffer {
			offers++
			payload := evt.Payload.(events.CreateOfferPayload)
			assert.Equal(t, int64(300), payload.PeerID)
			assert.Equal(t, third.ID, payload.HandleID)
		}
	}
	assert.Equal(t, 1, offers, "earliest member creates the offer")

	for _, evt := range drain(second) {
		assert.NotEqual(t, events.CallCreateOffer, evt.Type, "only one existing peer may be told to offer")
	}
}

func TestDisconnectRunsCallCleanup(t *testing.T) {
	h := New(testLogger())

	stayer := newTestClient(h, 100)
	dropper := newTestClient(h, 200)

	joinCodeRoom(t, h, stayer, 42, 9, 7)
	joinCodeRoom(t, h, dropper, 42, 9, 7)

	h.HandleEvent(stayer, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(stayer, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(dropper, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	drain(stayer)
	drain(dropper)

	h.Disconnect(dropper)

	var sawParticipants bool
	for _, evt := range drain(stayer) {
		if evt.Type == events.CallParticipants {
			sawParticipants = true
			payload := evt.Payload.(events.CallParticipantsPayload)
			assert.Equal(t, []int64{100}, payload.Participants)
		}
	}
	assert.True(t, sawParticipants, "remaining members get the updated participant list")

	// Now the last participant drops: the call must end and the team room
	// must hear about it.
	joinCodeRoom(t, h, dropper, 42, 9, 7) // reconnect a teammate to observe
	drain(dropper)
	drain(stayer)

	h.Disconnect(stayer)

	var sawEnded bool
	for _, evt := range drain(dropper) {
		if evt.Type == events.CallEnded {
			sawEnded = true
		}
	}
	assert.True(t, sawEnded, "team members are notified when the call ends")
}

func TestExplicitEndNotifiesTeam(t *testing.T) {
	h := New(testLogger())

	initiator := newTestClient(h, 100)
	teammate := newTestClient(h, 200)

	joinCodeRoom(t, h, initiator, 42, 9, 7)
	joinCodeRoom(t, h, teammate, 42, 9, 7)

	h.HandleEvent(initiator, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(initiator, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(teammate, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	drain(initiator)
	drain(teammate)

	h.HandleEvent(initiator, clientEvent(t, events.CallEnd, events.TeamPayload{TeamID: 7}))

	var sawEnded bool
	for _, evt := range drain(teammate) {
		if evt.Type == events.CallEnded {
			sawEnded = true
		}
	}
	assert.True(t, sawEnded)

	// A stale join after the end must be silently ignored.
	h.HandleEvent(teammate, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	assert.Empty(t, drain(initiator))
}

func TestInitiatorDisconnectBeforeJoiningEndsSoloCall(t *testing.T) {
	h := New(testLogger())

	initiator := newTestClient(h, 100)
	teammate := newTestClient(h, 200)

	joinCodeRoom(t, h, initiator, 42, 9, 7)
	joinCodeRoom(t, h, teammate, 42, 9, 7)

	// Start the call but never send call:join; the initiator occupies no
	// call room, only the tracker counts them.
	h.HandleEvent(initiator, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	drain(teammate)

	h.Disconnect(initiator)

	assert.False(t, h.calls.Active(7), "sole participant disconnecting must end the call")

	var sawEnded bool
	for _, evt := range drain(teammate) {
		if evt.Type == events.CallEnded {
			sawEnded = true
		}
	}
	assert.True(t, sawEnded, "team room must be told the call ended")

	// The team is idle again; a fresh call must be startable.
	h.HandleEvent(teammate, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	assert.True(t, h.calls.Active(7))
}

func TestInitiatorDisconnectBeforeJoiningLeavesOngoingCall(t *testing.T) {
	h := New(testLogger())

	initiator := newTestClient(h, 100)
	teammate := newTestClient(h, 200)

	joinCodeRoom(t, h, initiator, 42, 9, 7)
	joinCodeRoom(t, h, teammate, 42, 9, 7)

	h.HandleEvent(initiator, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))
	h.HandleEvent(teammate, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))
	drain(initiator)
	drain(teammate)

	h.Disconnect(initiator)

	participants, active := h.calls.Participants(7)
	require.True(t, active)
	assert.Equal(t, []int64{200}, participants, "the never-joined initiator must not linger as a phantom")

	// Now the actual last participant leaving ends the call.
	h.HandleEvent(teammate, clientEvent(t, events.CallLeave, events.TeamPayload{TeamID: 7}))
	assert.False(t, h.calls.Active(7))
}

func TestStaleCallJoinLeavesNoRoomMembership(t *testing.T) {
	h := New(testLogger())

	latecomer := newTestClient(h, 100)
	joinCodeRoom(t, h, latecomer, 42, 9, 7)

	// No call is active for team 7.
	h.HandleEvent(latecomer, clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7}))

	assert.Empty(t, h.registry.Members(CallRoomID(7)), "a rejected join must back out of the call room")
}

func TestRacingCallJoinsAlwaysDeliverCreateOffer(t *testing.T) {
	for i := 0; i < 100; i++ {
		h := New(testLogger())

		initiator := newTestClient(h, 1)
		h.HandleEvent(initiator, clientEvent(t, events.CallStart, events.TeamPayload{TeamID: 7}))

		racerA := newTestClient(h, 100)
		racerB := newTestClient(h, 200)

		join := clientEvent(t, events.CallJoin, events.TeamPayload{TeamID: 7})

		var wg sync.WaitGroup
		wg.Add(2)
		for _, racer := range []*Client{racerA, racerB} {
			go func(c *Client) {
				defer wg.Done()
				h.HandleEvent(c, join)
			}(racer)
		}
		wg.Wait()

		// The initiator never joined the call room, so exactly one racer
		// is told to create an offer, and the instruction must actually
		// reach that racer's queue.
		offers := 0
		for _, racer := range []*Client{racerA, racerB} {
			for _, evt := range drain(racer) {
				if evt.Type == events.CallCreateOffer {
					offers++
				}
			}
		}
		assert.Equal(t, 1, offers, "iteration %d: the create-offer instruction was lost or duplicated", i)
	}
}
