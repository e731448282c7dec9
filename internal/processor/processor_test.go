package processor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/notifier"
	"github.com/mauv0809/sabo-club/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *challenge.MockStore
	stats   *club.MockStore
	notif   *notifier.Mock
	metrics *metrics.Mock
	pubsub  *pubsub.MockPubSubClient
	p       *Processor
}

func newFixture(challenges ...*challenge.Challenge) *fixture {
	f := &fixture{
		store:   challenge.NewMock(),
		stats:   club.NewMock(),
		notif:   notifier.NewMock(),
		metrics: metrics.NewMock(),
		pubsub:  pubsub.NewMock(),
	}
	f.store.GetChallengesForProcessingFunc = func() ([]*challenge.Challenge, error) {
		return challenges, nil
	}
	f.p = New(f.store, f.stats, f.notif, f.metrics, f.pubsub)
	return f
}

func (f *fixture) statuses() []challenge.ProcessingStatus {
	var out []challenge.ProcessingStatus
	for _, call := range f.store.UpdateProcessingStatusCalls {
		out = append(out, call.Status)
	}
	return out
}

func intPtr(v int) *int { return &v }

func completed() *challenge.Challenge {
	return &challenge.Challenge{
		ID:               "c1",
		ChallengerID:     "minh",
		OpponentID:       "lan",
		RaceTo:           14,
		Status:           challenge.StatusCompleted,
		ProcessingStatus: challenge.ProcessingAcceptedNotified,
		ChallengerScore:  intPtr(12),
		OpponentScore:    intPtr(13),
		WinnerID:         "minh",
	}
}

func TestProcessor_ProcessChallenges(t *testing.T) {
	t.Run("new pending challenge sends created notification", func(t *testing.T) {
		c := &challenge.Challenge{ID: "c1", Status: challenge.StatusPending, ProcessingStatus: challenge.ProcessingNew}
		f := newFixture(c)

		f.p.ProcessChallenges(false)

		require.Len(t, f.notif.SendChallengeCreatedCalls, 1)
		assert.Equal(t, "c1", f.notif.SendChallengeCreatedCalls[0].ID)
		assert.Equal(t, []challenge.ProcessingStatus{challenge.ProcessingCreatedNotified}, f.statuses())
		assert.Empty(t, f.pubsub.SendMessageCalls)
		require.Len(t, f.store.ExpireStaleCalls, 1, "stale challenges are expired first")
		assert.Equal(t, 1, f.metrics.ProcessorRuns())
		assert.Equal(t, 1, f.metrics.ChallengesProcessed())
		assert.Len(t, f.metrics.ProcessingDurations(), 1)
	})

	t.Run("accepted challenge after announcement sends accepted notification", func(t *testing.T) {
		c := &challenge.Challenge{ID: "c1", Status: challenge.StatusAccepted, ProcessingStatus: challenge.ProcessingCreatedNotified}
		f := newFixture(c)

		f.p.ProcessChallenges(false)

		require.Len(t, f.notif.SendChallengeAcceptedCalls, 1)
		assert.Empty(t, f.notif.SendChallengeCreatedCalls)
		assert.Equal(t, []challenge.ProcessingStatus{challenge.ProcessingAcceptedNotified}, f.statuses())
	})

	t.Run("completed challenge publishes result and stats then finishes", func(t *testing.T) {
		f := newFixture(completed())

		f.p.ProcessChallenges(false)

		require.Len(t, f.pubsub.SendMessageCalls, 2)
		assert.Equal(t, pubsub.EventNotifyResult, f.pubsub.SendMessageCalls[0].Topic)
		assert.Equal(t, pubsub.EventUpdateMemberStats, f.pubsub.SendMessageCalls[1].Topic)
		sent, ok := f.pubsub.SendMessageCalls[1].Data.(*challenge.Challenge)
		require.True(t, ok, "Data sent to pubsub should be a Challenge")
		assert.Equal(t, "c1", sent.ID)
		assert.Empty(t, f.notif.SendChallengeResultCalls, "the result is sent by the pubsub consumer")
		assert.Equal(t, []challenge.ProcessingStatus{
			challenge.ProcessingResultNotified,
			challenge.ProcessingStatsUpdated,
			challenge.ProcessingDone,
		}, f.statuses())
	})

	t.Run("new challenge completed before announcement goes straight to result", func(t *testing.T) {
		c := completed()
		c.ProcessingStatus = challenge.ProcessingNew
		f := newFixture(c)

		f.p.ProcessChallenges(false)

		assert.Empty(t, f.notif.SendChallengeCreatedCalls)
		assert.Equal(t, challenge.ProcessingDone, c.ProcessingStatus)
	})

	t.Run("closed challenges are marked done", func(t *testing.T) {
		for _, status := range []challenge.Status{challenge.StatusDeclined, challenge.StatusCancelled, challenge.StatusExpired} {
			c := &challenge.Challenge{ID: "c1", Status: status, ProcessingStatus: challenge.ProcessingCreatedNotified}
			f := newFixture(c)

			f.p.ProcessChallenges(false)

			assert.Equal(t, []challenge.ProcessingStatus{challenge.ProcessingDone}, f.statuses(), "status %s", status)
			assert.Empty(t, f.pubsub.SendMessageCalls)
		}
	})

	t.Run("accepted challenge waiting for a score does not move", func(t *testing.T) {
		c := &challenge.Challenge{ID: "c1", Status: challenge.StatusAccepted, ProcessingStatus: challenge.ProcessingAcceptedNotified}
		f := newFixture(c)

		f.p.ProcessChallenges(false)

		assert.Empty(t, f.statuses())
		assert.Empty(t, f.notif.SendChallengeAcceptedCalls)
	})

	t.Run("failed notification is retried on the next run", func(t *testing.T) {
		c := &challenge.Challenge{ID: "c1", Status: challenge.StatusPending, ProcessingStatus: challenge.ProcessingNew}
		f := newFixture(c)
		f.notif.SendChallengeCreatedFunc = func(*challenge.Challenge, bool) error { return errors.New("slack down") }

		f.p.ProcessChallenges(false)

		assert.Empty(t, f.statuses())
		assert.Equal(t, challenge.ProcessingNew, c.ProcessingStatus)
	})

	t.Run("failed stats publish keeps the challenge at result notified", func(t *testing.T) {
		c := completed()
		c.ProcessingStatus = challenge.ProcessingResultNotified
		f := newFixture(c)
		f.pubsub.SendMessageFunc = func(pubsub.EventType, any) error { return errors.New("pubsub down") }

		f.p.ProcessChallenges(false)

		assert.Empty(t, f.statuses())
		assert.Equal(t, challenge.ProcessingResultNotified, c.ProcessingStatus)
	})

	t.Run("dry run never writes nor publishes", func(t *testing.T) {
		c := completed()
		f := newFixture(c)

		f.p.ProcessChallenges(true)

		assert.Empty(t, f.store.UpdateProcessingStatusCalls)
		assert.Empty(t, f.store.ExpireStaleCalls)
		assert.Empty(t, f.pubsub.SendMessageCalls)
		require.Len(t, f.notif.SendChallengeResultCalls, 1, "dry runs render the result directly")
		assert.Equal(t, challenge.ProcessingDone, c.ProcessingStatus, "in-memory status still advances")
	})

	t.Run("store failure stops the run", func(t *testing.T) {
		f := newFixture()
		f.store.GetChallengesForProcessingFunc = func() ([]*challenge.Challenge, error) { return nil, errors.New("db down") }

		f.p.ProcessChallenges(false)

		assert.Equal(t, 1, f.metrics.ProcessorRuns())
		assert.Equal(t, 0, f.metrics.ChallengesProcessed())
	})
}

func TestProcessor_ExpiresWithCurrentTime(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	f.p.now = func() time.Time { return fixed }

	f.p.ProcessChallenges(false)

	require.Len(t, f.store.ExpireStaleCalls, 1)
	assert.Equal(t, fixed, f.store.ExpireStaleCalls[0])
}

func (f *fixture) stored(c *challenge.Challenge) {
	f.store.GetChallengeFunc = func(id string) (*challenge.Challenge, error) {
		if id != c.ID {
			return nil, fmt.Errorf("%w: %s", challenge.ErrNotFound, id)
		}
		return c, nil
	}
}

func TestProcessor_UpdateMemberStats(t *testing.T) {
	t.Run("challenger wins", func(t *testing.T) {
		f := newFixture()
		f.stored(completed())
		require.NoError(t, f.p.UpdateMemberStats(completed()))

		require.Len(t, f.stats.UpdateMemberStatsCalls, 1)
		assert.Equal(t, club.StatsUpdate{ChallengeID: "c1", WinnerID: "minh", LoserID: "lan", WinnerRacks: 12, LoserRacks: 13}, f.stats.UpdateMemberStatsCalls[0])
	})

	t.Run("opponent wins", func(t *testing.T) {
		f := newFixture()
		c := completed()
		c.ChallengerScore, c.OpponentScore, c.WinnerID = intPtr(11), intPtr(14), "lan"
		f.stored(c)
		require.NoError(t, f.p.UpdateMemberStats(&challenge.Challenge{ID: "c1"}))

		require.Len(t, f.stats.UpdateMemberStatsCalls, 1)
		assert.Equal(t, club.StatsUpdate{ChallengeID: "c1", WinnerID: "lan", LoserID: "minh", WinnerRacks: 14, LoserRacks: 11}, f.stats.UpdateMemberStatsCalls[0])
	})

	t.Run("the stored challenge wins over the message", func(t *testing.T) {
		f := newFixture()
		f.stored(completed())
		msg := completed()
		msg.ChallengerScore, msg.OpponentScore, msg.WinnerID = intPtr(0), intPtr(14), "lan"

		require.NoError(t, f.p.UpdateMemberStats(msg))
		require.Len(t, f.stats.UpdateMemberStatsCalls, 1)
		assert.Equal(t, "minh", f.stats.UpdateMemberStatsCalls[0].WinnerID)
	})

	t.Run("unknown challenge is rejected", func(t *testing.T) {
		f := newFixture()
		err := f.p.UpdateMemberStats(&challenge.Challenge{ID: "ghost", Status: challenge.StatusCompleted, WinnerID: "lan"})
		assert.ErrorIs(t, err, challenge.ErrNotFound)
		assert.Empty(t, f.stats.UpdateMemberStatsCalls)
	})

	t.Run("unfinished challenge is rejected", func(t *testing.T) {
		f := newFixture()
		f.stored(&challenge.Challenge{ID: "c1", Status: challenge.StatusAccepted})
		err := f.p.UpdateMemberStats(completed())
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
		assert.Empty(t, f.stats.UpdateMemberStatsCalls)
	})
}

func TestProcessor_NotifyResult(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.p.NotifyResult(completed(), false))
	require.Len(t, f.notif.SendChallengeResultCalls, 1)

	err := f.p.NotifyResult(&challenge.Challenge{ID: "c2", Status: challenge.StatusPending}, false)
	assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
}
