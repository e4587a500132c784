package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStartTransitionsToActive(t *testing.T) {
	tracker := NewCallTracker()

	assert.False(t, tracker.Active(7))

	tracker.Start(7, 100)

	assert.True(t, tracker.Active(7))
	participants, ok := tracker.Participants(7)
	require.True(t, ok)
	assert.Equal(t, []int64{100}, participants)

	initiator, ok := tracker.Initiator(7)
	require.True(t, ok)
	assert.Equal(t, int64(100), initiator)
}

func TestCallJoinOfferTarget(t *testing.T) {
	tracker := NewCallTracker()
	tracker.Start(7, 100)

	// The first user to actually enter the call room gets no offer
	// instruction: there is nobody to connect to yet.
	_, hasOffer, ok := tracker.Join(7, 100)
	require.True(t, ok)
	assert.False(t, hasOffer)

	// The second gets exactly one target: the earliest room member.
	offerTo, hasOffer, ok := tracker.Join(7, 200)
	require.True(t, ok)
	require.True(t, hasOffer)
	assert.Equal(t, int64(100), offerTo)

	// And so does the third.
	offerTo, hasOffer, ok = tracker.Join(7, 300)
	require.True(t, ok)
	require.True(t, hasOffer)
	assert.Equal(t, int64(100), offerTo)

	participants, ok := tracker.Participants(7)
	require.True(t, ok)
	assert.Equal(t, []int64{100, 200, 300}, participants)
}

func TestCallJoinOnIdleTeamIsIgnored(t *testing.T) {
	tracker := NewCallTracker()

	_, _, ok := tracker.Join(7, 200)
	assert.False(t, ok, "joining with no active call must be silently ignored")

	_, _, ok = tracker.Leave(7, 200)
	assert.False(t, ok)

	assert.False(t, tracker.End(7))
}

func TestLastParticipantLeavingEndsCall(t *testing.T) {
	tracker := NewCallTracker()
	tracker.Start(7, 100)
	tracker.Join(7, 100)
	tracker.Join(7, 200)

	remaining, ended, ok := tracker.Leave(7, 100)
	require.True(t, ok)
	assert.False(t, ended)
	assert.Equal(t, []int64{200}, remaining)

	_, ended, ok = tracker.Leave(7, 200)
	require.True(t, ok)
	assert.True(t, ended, "last participant leaving must end the call")
	assert.False(t, tracker.Active(7))
}

func TestExplicitEndIsUnconditional(t *testing.T) {
	tracker := NewCallTracker()
	tracker.Start(7, 100)
	tracker.Join(7, 100)
	tracker.Join(7, 200)

	require.True(t, tracker.End(7))
	assert.False(t, tracker.Active(7))

	// The team is reusable immediately: idle is both initial and terminal.
	tracker.Start(7, 200)
	assert.True(t, tracker.Active(7))
}

func TestRestartReplacesActiveCall(t *testing.T) {
	tracker := NewCallTracker()
	tracker.Start(7, 100)
	tracker.Join(7, 100)

	// Last writer wins: a second start supersedes the running call.
	tracker.Start(7, 200)

	participants, ok := tracker.Participants(7)
	require.True(t, ok)
	assert.Equal(t, []int64{200}, participants)
}

func TestConcurrentJoinsDesignateExactlyOneOfferer(t *testing.T) {
	// Two users race to join right after the call starts, before the
	// initiator has entered the call room. Exactly one of them must be the
	// create-offer target of the other, regardless of interleaving.
	for i := 0; i < 100; i++ {
		tracker := NewCallTracker()
		tracker.Start(7, 100)

		type joinResult struct {
			user     int64
			offerTo  int64
			hasOffer bool
		}
		results := make(chan joinResult, 2)

		var wg sync.WaitGroup
		for _, user := range []int64{200, 300} {
			wg.Add(1)
			go func(user int64) {
				defer wg.Done()
				offerTo, hasOffer, ok := tracker.Join(7, user)
				require.True(t, ok)
				results <- joinResult{user: user, offerTo: offerTo, hasOffer: hasOffer}
			}(user)
		}
		wg.Wait()
		close(results)

		var offers []joinResult
		for res := range results {
			if res.hasOffer {
				offers = append(offers, res)
			}
		}

		require.Len(t, offers, 1, "exactly one join must carry an offer instruction")
		other := int64(500) - offers[0].user // 200 <-> 300
		assert.Equal(t, other, offers[0].offerTo, "the offer target must be the other racer")

		participants, ok := tracker.Participants(7)
		require.True(t, ok)
		assert.ElementsMatch(t, []int64{100, 200, 300}, participants)
	}
}

func TestTeamsWithParticipantSeesUnjoinedInitiator(t *testing.T) {
	tracker := NewCallTracker()

	tracker.Start(7, 100) // started, never joined the call room
	tracker.Start(9, 300)
	tracker.Join(9, 100)

	assert.Equal(t, []int64{7, 9}, tracker.TeamsWithParticipant(100))
	assert.Empty(t, tracker.TeamsWithParticipant(999))

	tracker.Leave(7, 100)
	assert.Equal(t, []int64{9}, tracker.TeamsWithParticipant(100))
}
