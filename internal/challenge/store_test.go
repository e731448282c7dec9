package challenge_test

import (
	"testing"
	"time"

	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/database"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, ttl time.Duration) (challenge.ChallengeStore, *metrics.Mock) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	members := club.New(db)
	require.NoError(t, members.AddMember("minh", "Minh", "H"))
	require.NoError(t, members.AddMember("lan", "Lan", "G"))
	require.NoError(t, members.AddMember("khoa", "Khoa", "K"))
	require.NoError(t, members.AddMember("phuc", "Phuc", "F"))
	require.NoError(t, members.AddMember("phong", "Phong", "F+"))

	m := metrics.NewMock()
	return challenge.NewStore(db, members, handicap.Default(), m, ttl), m
}

func TestCreateChallenge_ResolvesHandicap(t *testing.T) {
	store, m := setupTestStore(t, time.Hour)

	scheduled := time.Now().Add(24 * time.Hour)
	c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 300, ScheduledAt: &scheduled})
	require.NoError(t, err)

	assert.Equal(t, challenge.StatusPending, c.Status)
	assert.Equal(t, challenge.ProcessingNew, c.ProcessingStatus)
	assert.Equal(t, 14, c.RaceTo)
	assert.Equal(t, 2.0, c.ChallengerHandicap, "the weaker H player receives the main handicap")
	assert.Equal(t, 0.0, c.OpponentHandicap)
	assert.Equal(t, 1, m.HandicapResolutions(metrics.OutcomeOK))

	stored, err := store.GetChallenge(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Minh", stored.ChallengerName)
	assert.Equal(t, "H", stored.ChallengerRank)
	assert.Equal(t, "Lan", stored.OpponentName)
	assert.Equal(t, "G", stored.OpponentRank)
	assert.Equal(t, c.Handicap(), stored.Handicap())
	require.NotNil(t, stored.ScheduledAt)
	assert.Equal(t, scheduled.Unix(), stored.ScheduledAt.Unix())
	assert.Nil(t, stored.ChallengerScore)
	assert.Empty(t, stored.WinnerID)
	assert.True(t, stored.ExpiresAt.After(stored.CreatedAt))
}

func TestCreateChallenge_Rejections(t *testing.T) {
	store, m := setupTestStore(t, time.Hour)

	_, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "khoa", OpponentID: "lan", Stake: 100})
	assert.ErrorIs(t, err, handicap.ErrRankGapTooLarge)
	assert.Equal(t, 1, m.HandicapResolutions(metrics.OutcomeRankGapTooLarge))

	_, err = store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 150})
	assert.ErrorIs(t, err, handicap.ErrInvalidStake)
	assert.Equal(t, 1, m.HandicapResolutions(metrics.OutcomeInvalidStake))

	_, err = store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "minh", Stake: 100})
	assert.ErrorIs(t, err, challenge.ErrInvalidChallenge)

	_, err = store.CreateChallenge(challenge.NewChallenge{Stake: 100})
	assert.ErrorIs(t, err, challenge.ErrInvalidChallenge)

	_, err = store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "ghost", Stake: 100})
	assert.ErrorIs(t, err, club.ErrMemberNotFound)

	_, err = store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", Stake: 0})
	assert.ErrorIs(t, err, handicap.ErrInvalidStake, "open challenges still validate the stake")

	all, err := store.ListChallenges(challenge.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all, "nothing is persisted when resolution fails")
}

func TestOpenChallenge(t *testing.T) {
	store, _ := setupTestStore(t, time.Hour)

	c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "phuc", Stake: 100})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusOpen, c.Status)
	assert.Equal(t, 8, c.RaceTo)
	assert.Empty(t, c.OpponentID)

	_, err = store.AcceptChallenge(c.ID, "phuc")
	assert.ErrorIs(t, err, challenge.ErrNotParticipant)

	_, err = store.AcceptChallenge(c.ID, "khoa")
	assert.ErrorIs(t, err, handicap.ErrRankGapTooLarge)

	_, err = store.DeclineChallenge(c.ID, "phong")
	assert.ErrorIs(t, err, challenge.ErrInvalidTransition, "open challenges cannot be declined")

	accepted, err := store.AcceptChallenge(c.ID, "phong")
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, accepted.Status)
	assert.Equal(t, "phong", accepted.OpponentID)
	assert.Equal(t, "F+", accepted.OpponentRank)
	assert.Equal(t, 0.5, accepted.ChallengerHandicap, "the F player without + receives the sub handicap")
	assert.Equal(t, 0.0, accepted.OpponentHandicap)

	stored, err := store.GetChallenge(c.ID)
	require.NoError(t, err)
	assert.Equal(t, accepted.Handicap(), stored.Handicap())
	assert.Equal(t, "Phong", stored.OpponentName)
}

func TestPendingChallengeTransitions(t *testing.T) {
	store, _ := setupTestStore(t, time.Hour)

	t.Run("only the opponent accepts", func(t *testing.T) {
		c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)

		_, err = store.AcceptChallenge(c.ID, "khoa")
		assert.ErrorIs(t, err, challenge.ErrNotParticipant)

		accepted, err := store.AcceptChallenge(c.ID, "lan")
		require.NoError(t, err)
		assert.Equal(t, challenge.StatusAccepted, accepted.Status)

		_, err = store.AcceptChallenge(c.ID, "lan")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
		_, err = store.CancelChallenge(c.ID, "minh")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
	})

	t.Run("only the opponent declines", func(t *testing.T) {
		c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)

		_, err = store.DeclineChallenge(c.ID, "minh")
		assert.ErrorIs(t, err, challenge.ErrNotParticipant)

		declined, err := store.DeclineChallenge(c.ID, "lan")
		require.NoError(t, err)
		assert.Equal(t, challenge.StatusDeclined, declined.Status)

		_, err = store.DeclineChallenge(c.ID, "lan")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
	})

	t.Run("only the challenger cancels", func(t *testing.T) {
		c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)

		_, err = store.CancelChallenge(c.ID, "lan")
		assert.ErrorIs(t, err, challenge.ErrNotParticipant)

		cancelled, err := store.CancelChallenge(c.ID, "minh")
		require.NoError(t, err)
		assert.Equal(t, challenge.StatusCancelled, cancelled.Status)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		_, err := store.AcceptChallenge("missing", "lan")
		assert.ErrorIs(t, err, challenge.ErrNotFound)
		_, err = store.SubmitScore("missing", 1, 1)
		assert.ErrorIs(t, err, challenge.ErrNotFound)
	})
}

func TestSubmitScore(t *testing.T) {
	store, _ := setupTestStore(t, time.Hour)

	newAccepted := func(t *testing.T) *challenge.Challenge {
		t.Helper()
		c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 300})
		require.NoError(t, err)
		c, err = store.AcceptChallenge(c.ID, "lan")
		require.NoError(t, err)
		return c
	}

	t.Run("handicap racks count towards the race", func(t *testing.T) {
		c := newAccepted(t)

		done, err := store.SubmitScore(c.ID, 12, 13)
		require.NoError(t, err)
		assert.Equal(t, challenge.StatusCompleted, done.Status)
		assert.Equal(t, "minh", done.WinnerID)
		assert.Equal(t, "lan", done.LoserID())

		stored, err := store.GetChallenge(c.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ChallengerScore)
		require.NotNil(t, stored.OpponentScore)
		assert.Equal(t, 12, *stored.ChallengerScore)
		assert.Equal(t, 13, *stored.OpponentScore)
		assert.Equal(t, "minh", stored.WinnerID)

		_, err = store.SubmitScore(c.ID, 12, 13)
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
	})

	t.Run("stronger side wins the full race", func(t *testing.T) {
		c := newAccepted(t)
		done, err := store.SubmitScore(c.ID, 11, 14)
		require.NoError(t, err)
		assert.Equal(t, "lan", done.WinnerID)
	})

	t.Run("invalid scores", func(t *testing.T) {
		c := newAccepted(t)
		for _, score := range [][2]int{{14, 14}, {10, 13}, {15, 3}, {-1, 14}, {12, 15}} {
			_, err := store.SubmitScore(c.ID, score[0], score[1])
			assert.ErrorIs(t, err, challenge.ErrInvalidScore, "score %v", score)
		}
		stored, err := store.GetChallenge(c.ID)
		require.NoError(t, err)
		assert.Equal(t, challenge.StatusAccepted, stored.Status)
	})

	t.Run("pending challenges cannot be scored", func(t *testing.T) {
		c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)
		_, err = store.SubmitScore(c.ID, 8, 0)
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
	})
}

func TestExpiry(t *testing.T) {
	t.Run("ExpireStale", func(t *testing.T) {
		store, _ := setupTestStore(t, time.Hour)

		pending, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)
		open, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "lan", Stake: 200})
		require.NoError(t, err)
		accepted, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "phuc", OpponentID: "phong", Stake: 100})
		require.NoError(t, err)
		_, err = store.AcceptChallenge(accepted.ID, "phong")
		require.NoError(t, err)

		n, err := store.ExpireStale(time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		n, err = store.ExpireStale(time.Now().Add(2 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		for _, id := range []string{pending.ID, open.ID} {
			c, err := store.GetChallenge(id)
			require.NoError(t, err)
			assert.Equal(t, challenge.StatusExpired, c.Status)
		}
		c, err := store.GetChallenge(accepted.ID)
		require.NoError(t, err)
		assert.Equal(t, challenge.StatusAccepted, c.Status)
	})

	t.Run("late acceptance is refused", func(t *testing.T) {
		store, _ := setupTestStore(t, time.Nanosecond)

		c, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)
		_, err = store.AcceptChallenge(c.ID, "lan")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
	})

	t.Run("late decline and cancel are refused", func(t *testing.T) {
		store, _ := setupTestStore(t, time.Nanosecond)

		pending, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
		require.NoError(t, err)
		open, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "lan", Stake: 200})
		require.NoError(t, err)

		_, err = store.DeclineChallenge(pending.ID, "lan")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
		_, err = store.CancelChallenge(pending.ID, "minh")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)
		_, err = store.CancelChallenge(open.ID, "lan")
		assert.ErrorIs(t, err, challenge.ErrInvalidTransition)

		n, err := store.ExpireStale(time.Now())
		require.NoError(t, err)
		assert.Equal(t, 2, n, "both are left for the sweep to expire")
		for _, id := range []string{pending.ID, open.ID} {
			c, err := store.GetChallenge(id)
			require.NoError(t, err)
			assert.Equal(t, challenge.StatusExpired, c.Status)
		}
	})
}

func TestListAndProcessing(t *testing.T) {
	store, _ := setupTestStore(t, time.Hour)

	a, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "minh", OpponentID: "lan", Stake: 100})
	require.NoError(t, err)
	b, err := store.CreateChallenge(challenge.NewChallenge{ChallengerID: "phuc", OpponentID: "phong", Stake: 100})
	require.NoError(t, err)
	_, err = store.CreateChallenge(challenge.NewChallenge{ChallengerID: "khoa", Stake: 600})
	require.NoError(t, err)
	_, err = store.CancelChallenge(b.ID, "phuc")
	require.NoError(t, err)

	all, err := store.ListChallenges(challenge.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byMember, err := store.ListChallenges(challenge.Filter{MemberID: "lan"})
	require.NoError(t, err)
	require.Len(t, byMember, 1)
	assert.Equal(t, a.ID, byMember[0].ID)

	open, err := store.ListChallenges(challenge.Filter{Status: challenge.StatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "khoa", open[0].ChallengerID)

	cancelled, err := store.ListChallenges(challenge.Filter{Status: challenge.StatusCancelled, MemberID: "phong"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)

	require.NoError(t, store.UpdateProcessingStatus(a.ID, challenge.ProcessingDone))
	assert.ErrorIs(t, store.UpdateProcessingStatus("missing", challenge.ProcessingDone), challenge.ErrNotFound)

	toProcess, err := store.GetChallengesForProcessing()
	require.NoError(t, err)
	assert.Len(t, toProcess, 2)
	for _, c := range toProcess {
		assert.NotEqual(t, a.ID, c.ID)
	}
}
