package hub

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Faysoula/SyncSolve-sub000/internal/events"
)

// Room identifier helpers. A connection can sit in any number of these at once.

func CodeRoomID(sessionID, problemID int64) string {
	return fmt.Sprintf("%d-%d", sessionID, problemID)
}

func TeamRoomID(teamID int64) string {
	return fmt.Sprintf("team-%d", teamID)
}

func CallRoomID(teamID int64) string {
	return fmt.Sprintf("call-%d", teamID)
}

// member pairs a client with its join sequence number so membership
// enumeration order is explicit rather than an accident of map iteration.
type member struct {
	client *Client
	seq    uint64
}

type room struct {
	mu      sync.Mutex
	nextSeq uint64
	members map[string]member
}

// Registry tracks which connections belong to which rooms, plus the global
// handle -> connection directory used for unicast relays. The outer lock only
// guards the maps; each room carries its own lock so traffic in one room
// never blocks another.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Client
	rooms    map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Client),
		rooms:    make(map[string]*room),
	}
}

// Register adds a connection to the handle directory.
func (reg *Registry) Register(c *Client) {
	reg.mu.Lock()
	reg.sessions[c.ID] = c
	reg.mu.Unlock()
}

// Lookup resolves a connection handle. The second return is false when the
// handle is unknown or already disconnected.
func (reg *Registry) Lookup(handleID string) (*Client, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	c, ok := reg.sessions[handleID]
	return c, ok
}

// Join adds the client to a room, creating the room on first join. Joining a
// room the client is already in is a no-op that keeps the original sequence.
func (reg *Registry) Join(roomID string, c *Client) {
	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	if !ok {
		r = &room{members: make(map[string]member)}
		reg.rooms[roomID] = r
	}
	reg.mu.Unlock()

	r.mu.Lock()
	if _, ok := r.members[c.ID]; !ok {
		r.members[c.ID] = member{client: c, seq: r.nextSeq}
		r.nextSeq++
	}
	r.mu.Unlock()
}

// Leave removes the client from a room. Leaving a room that was never joined
// is a no-op; empty rooms are pruned so the map doesn't leak.
func (reg *Registry) Leave(roomID string, handleID string) {
	reg.mu.RLock()
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.members, handleID)
	empty := len(r.members) == 0
	r.mu.Unlock()

	if empty {
		reg.dropIfEmpty(roomID, r)
	}
}

// Disconnect removes the handle from every room it belonged to and from the
// directory, returning the ids of the rooms it was in. Call-state cleanup
// runs after this, so membership must already be current when it does.
func (reg *Registry) Disconnect(c *Client) []string {
	reg.mu.Lock()
	delete(reg.sessions, c.ID)
	rooms := make(map[string]*room, len(reg.rooms))
	for id, r := range reg.rooms {
		rooms[id] = r
	}
	reg.mu.Unlock()

	var left []string
	for id, r := range rooms {
		r.mu.Lock()
		_, in := r.members[c.ID]
		if in {
			delete(r.members, c.ID)
		}
		empty := len(r.members) == 0
		r.mu.Unlock()

		if in {
			left = append(left, id)
		}
		if empty {
			reg.dropIfEmpty(id, r)
		}
	}
	return left
}

// Members returns the room's clients in join order.
func (reg *Registry) Members(roomID string) []*Client {
	reg.mu.RLock()
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	entries := make([]member, 0, len(r.members))
	for _, m := range r.members {
		entries = append(entries, m)
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]*Client, len(entries))
	for i, m := range entries {
		out[i] = m.client
	}
	return out
}

// MemberByUser finds the earliest-joined connection in a room belonging to
// the given user.
func (reg *Registry) MemberByUser(roomID string, userID int64) (*Client, bool) {
	for _, c := range reg.Members(roomID) {
		if c.UserID == userID {
			return c, true
		}
	}
	return nil, false
}

// Broadcast sends an event to every member of the room except the sender.
// Delivery is best-effort: a member with a full send queue misses the event.
func (reg *Registry) Broadcast(roomID string, evt events.ServerEvent, exclude *Client) {
	for _, c := range reg.Members(roomID) {
		if exclude != nil && c.ID == exclude.ID {
			continue
		}
		c.Send(evt)
	}
}

// Clear removes every member of a room at once (used when a call ends).
func (reg *Registry) Clear(roomID string) {
	reg.mu.Lock()
	delete(reg.rooms, roomID)
	reg.mu.Unlock()
}

func (reg *Registry) dropIfEmpty(roomID string, r *room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if cur, ok := reg.rooms[roomID]; ok && cur == r {
		cur.mu.Lock()
		empty := len(cur.members) == 0
		cur.mu.Unlock()
		if empty {
			delete(reg.rooms, roomID)
		}
	}
}
