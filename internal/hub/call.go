package hub

import (
	"sort"
	"sync"
)

// callState is the single source of truth for one team's call.
//
// participants is everyone counted as in the call, the initiator from the
// moment the call starts. joinSeq records the order in which participants
// actually entered the call room via call:join; the offer tie-break reads it
// so the choice never depends on transport enumeration order.
type callState struct {
	mu           sync.Mutex
	initiatorID  int64
	nextSeq      uint64
	participants map[int64]struct{}
	joinSeq      map[int64]uint64
	ended        bool
}

// CallTracker holds per-team call state. Each team's state carries its own
// lock; the tracker lock only guards the map, so calls on different teams
// never contend.
type CallTracker struct {
	mu    sync.RWMutex
	calls map[int64]*callState
}

func NewCallTracker() *CallTracker {
	return &CallTracker{calls: make(map[int64]*callState)}
}

// Start transitions a team to an active call with the initiator as the sole
// participant. Starting while a call is already active replaces it
// (last writer wins).
func (t *CallTracker) Start(teamID, initiatorID int64) {
	st := &callState{
		initiatorID:  initiatorID,
		participants: map[int64]struct{}{initiatorID: {}},
		joinSeq:      make(map[int64]uint64),
	}
	t.mu.Lock()
	t.calls[teamID] = st
	t.mu.Unlock()
}

func (t *CallTracker) get(teamID int64) *callState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calls[teamID]
}

// Join adds a user to the team's call. The returned offerTo is the earliest
// participant already in the call room, chosen under the same lock that
// records the join so two racing joins can never both see an empty room.
// ok is false when the team has no active call; the caller must ignore the
// event in that case (the client likely raced a stale notification).
func (t *CallTracker) Join(teamID, userID int64) (offerTo int64, hasOffer bool, ok bool) {
	st := t.get(teamID)
	if st == nil {
		return 0, false, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ended {
		return 0, false, false
	}

	var bestSeq uint64
	for uid, seq := range st.joinSeq {
		if uid == userID {
			continue
		}
		if !hasOffer || seq < bestSeq {
			offerTo = uid
			bestSeq = seq
			hasOffer = true
		}
	}

	st.participants[userID] = struct{}{}
	if _, already := st.joinSeq[userID]; !already {
		st.joinSeq[userID] = st.nextSeq
		st.nextSeq++
	}

	return offerTo, hasOffer, true
}

// Leave removes a user from the team's call. When the last participant
// leaves, the call transitions to idle and ended is true. ok is false when
// no call is active (leave against an idle team is silently ignored).
func (t *CallTracker) Leave(teamID, userID int64) (remaining []int64, ended, ok bool) {
	st := t.get(teamID)
	if st == nil {
		return nil, false, false
	}

	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		return nil, false, false
	}
	if _, in := st.participants[userID]; !in {
		st.mu.Unlock()
		return nil, false, false
	}

	delete(st.participants, userID)
	delete(st.joinSeq, userID)

	if len(st.participants) == 0 {
		st.ended = true
		st.mu.Unlock()
		t.drop(teamID, st)
		return nil, true, true
	}

	remaining = participantList(st)
	st.mu.Unlock()
	return remaining, false, true
}

// End tears the call down unconditionally. ok is false when the team was
// already idle.
func (t *CallTracker) End(teamID int64) bool {
	st := t.get(teamID)
	if st == nil {
		return false
	}

	st.mu.Lock()
	if st.ended {
		st.mu.Unlock()
		return false
	}
	st.ended = true
	st.mu.Unlock()

	t.drop(teamID, st)
	return true
}

// Participants returns the current participant set in call-room join order,
// initiator first if they have not joined the room yet.
func (t *CallTracker) Participants(teamID int64) ([]int64, bool) {
	st := t.get(teamID)
	if st == nil {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ended {
		return nil, false
	}
	return participantList(st), true
}

// TeamsWithParticipant returns the teams whose active call counts the user
// as a participant. An initiator who started a call but never entered the
// call room occupies no room, so disconnect cleanup must ask the tracker,
// not room membership.
func (t *CallTracker) TeamsWithParticipant(userID int64) []int64 {
	t.mu.RLock()
	states := make(map[int64]*callState, len(t.calls))
	for teamID, st := range t.calls {
		states[teamID] = st
	}
	t.mu.RUnlock()

	var teams []int64
	for teamID, st := range states {
		st.mu.Lock()
		_, in := st.participants[userID]
		ended := st.ended
		st.mu.Unlock()
		if in && !ended {
			teams = append(teams, teamID)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}

// Active reports whether the team has a call in progress.
func (t *CallTracker) Active(teamID int64) bool {
	st := t.get(teamID)
	if st == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return !st.ended
}

// Initiator returns who started the team's active call.
func (t *CallTracker) Initiator(teamID int64) (int64, bool) {
	st := t.get(teamID)
	if st == nil {
		return 0, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ended {
		return 0, false
	}
	return st.initiatorID, true
}

// drop removes an ended state from the map unless another call already
// replaced it.
func (t *CallTracker) drop(teamID int64, st *callState) {
	t.mu.Lock()
	if cur, ok := t.calls[teamID]; ok && cur == st {
		delete(t.calls, teamID)
	}
	t.mu.Unlock()
}

// participantList must be called with st.mu held.
func participantList(st *callState) []int64 {
	out := make([]int64, 0, len(st.participants))
	for uid := range st.participants {
		out = append(out, uid)
	}
	sort.Slice(out, func(i, j int) bool {
		si, iOK := st.joinSeq[out[i]]
		sj, jOK := st.joinSeq[out[j]]
		switch {
		case iOK && jOK:
			return si < sj
		case iOK != jOK:
			return !iOK // not-yet-joined (initiator) sorts first
		default:
			return out[i] < out[j]
		}
	})
	return out
}
