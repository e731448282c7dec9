package club_test

import (
	"database/sql"
	"testing"

	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/database"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (club.ClubStore, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return club.New(db), db, teardown
}

func TestAddAndGetMembers(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Nguyen Van Minh", "h"))
	require.NoError(t, store.AddMember("m2", "Tran Thi Lan", " G+ "))

	assert.True(t, store.IsKnownMember("m1"))
	assert.False(t, store.IsKnownMember("m3"))

	m, err := store.GetMember("m1")
	require.NoError(t, err)
	assert.Equal(t, "H", m.Rank, "rank labels are stored normalised")
	assert.Nil(t, m.SlackUserID)

	m, err = store.GetMember("m2")
	require.NoError(t, err)
	assert.Equal(t, "G+", m.Rank)

	all, err := store.GetAllMembers()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := store.GetMembers([]string{"m2", "missing"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "m2", some[0].ID)
}

func TestAddMember_UnknownRank(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	err := store.AddMember("m1", "Minh", "Z")
	assert.ErrorIs(t, err, handicap.ErrUnknownRank)
	assert.False(t, store.IsKnownMember("m1"))
}

func TestGetMember_NotFound(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := store.GetMember("nobody")
	assert.ErrorIs(t, err, club.ErrMemberNotFound)
}

func TestAddMember_UpdatesExisting(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "K"))
	require.NoError(t, store.AddMember("m1", "Minh Nguyen", "I+"))

	m, err := store.GetMember("m1")
	require.NoError(t, err)
	assert.Equal(t, "Minh Nguyen", m.Name)
	assert.Equal(t, "I+", m.Rank)
}

func TestUpsertMembers(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	slackID := "U123"
	err := store.UpsertMembers([]club.Member{
		{ID: "m1", Name: "Minh", Rank: "H", SlackUserID: &slackID},
		{ID: "m2", Name: "Lan", Rank: "g"},
	})
	require.NoError(t, err)

	// A later upsert without a Slack ID keeps the existing link.
	require.NoError(t, store.UpsertMembers([]club.Member{{ID: "m1", Name: "Minh", Rank: "H+"}}))

	m, err := store.GetMember("m1")
	require.NoError(t, err)
	assert.Equal(t, "H+", m.Rank)
	require.NotNil(t, m.SlackUserID)
	assert.Equal(t, "U123", *m.SlackUserID)

	err = store.UpsertMembers([]club.Member{{ID: "m3", Name: "Bad", Rank: "Q"}})
	assert.ErrorIs(t, err, handicap.ErrUnknownRank)
}

func TestUpsertMembers_LeavesInputUntouched(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	batch := []club.Member{
		{ID: "m1", Name: "Minh", Rank: "h+"},
		{ID: "m2", Name: "Bad", Rank: "Q"},
	}
	err := store.UpsertMembers(batch)
	assert.ErrorIs(t, err, handicap.ErrUnknownRank)
	assert.Equal(t, "h+", batch[0].Rank, "ranks are normalised on a copy")
	assert.False(t, store.IsKnownMember("m1"), "nothing is written when a rank is invalid")

	batch = []club.Member{{ID: "m3", Name: "Lan", Rank: "g"}}
	require.NoError(t, store.UpsertMembers(batch))
	assert.Equal(t, "g", batch[0].Rank)
	m, err := store.GetMember("m3")
	require.NoError(t, err)
	assert.Equal(t, "G", m.Rank)
}

func TestGetMembersSortedByRank(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("k", "Khoa", "K"))
	require.NoError(t, store.AddMember("gp", "Giang", "G+"))
	require.NoError(t, store.AddMember("g2", "Binh", "G"))
	require.NoError(t, store.AddMember("g1", "An", "G"))
	require.NoError(t, store.AddMember("e", "Em", "E"))

	members, err := store.GetMembersSortedByRank()
	require.NoError(t, err)

	var ids []string
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"e", "gp", "g1", "g2", "k"}, ids)
}

func TestSlackLink(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "H"))

	_, err := store.GetMemberBySlackUserID("U1")
	assert.ErrorIs(t, err, club.ErrMemberNotFound)

	require.NoError(t, store.LinkSlackUser("m1", "U1"))
	m, err := store.GetMemberBySlackUserID("U1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)

	assert.ErrorIs(t, store.LinkSlackUser("ghost", "U2"), club.ErrMemberNotFound)
}

func TestUpdateRank(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "H"))
	require.NoError(t, store.UpdateRank("m1", "g"))

	m, err := store.GetMember("m1")
	require.NoError(t, err)
	assert.Equal(t, "G", m.Rank)

	assert.ErrorIs(t, store.UpdateRank("m1", "X+"), handicap.ErrUnknownRank)
	assert.ErrorIs(t, store.UpdateRank("ghost", "G"), club.ErrMemberNotFound)
}

func TestUpdateMemberStats(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Nguyen Van Minh", "H"))
	require.NoError(t, store.AddMember("m2", "Tran Thi Lan", "G"))
	require.NoError(t, store.AddMember("m3", "Idle Player", "K"))

	require.NoError(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c1", WinnerID: "m1", LoserID: "m2", WinnerRacks: 14, LoserRacks: 10}))
	require.NoError(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c2", WinnerID: "m1", LoserID: "m2", WinnerRacks: 14, LoserRacks: 12}))
	require.NoError(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c3", WinnerID: "m2", LoserID: "m1", WinnerRacks: 8, LoserRacks: 3}))

	stats, err := store.GetMemberStats()
	require.NoError(t, err)
	require.Len(t, stats, 2, "members without matches are not on the leaderboard")

	minh := stats[0]
	assert.Equal(t, "m1", minh.MemberID)
	assert.Equal(t, "H", minh.Rank)
	assert.Equal(t, 3, minh.MatchesPlayed)
	assert.Equal(t, 2, minh.MatchesWon)
	assert.Equal(t, 1, minh.MatchesLost)
	assert.Equal(t, 31, minh.RacksWon)
	assert.Equal(t, 30, minh.RacksLost)
	assert.InDelta(t, 66.66, minh.WinPercentage, 0.01)

	lan := stats[1]
	assert.Equal(t, "m2", lan.MemberID)
	assert.Equal(t, 1, lan.MatchesWon)
	assert.Equal(t, 2, lan.MatchesLost)
}

func TestUpdateMemberStats_Invalid(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "H"))
	assert.Error(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c1", WinnerID: "m1", LoserID: "m1"}))
	assert.Error(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c1", WinnerID: "m1"}))
	assert.Error(t, store.UpdateMemberStats(club.StatsUpdate{WinnerID: "m1", LoserID: "m2"}), "the challenge id is required")
	assert.Error(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c1", WinnerID: "m1", LoserID: "ghost"}), "foreign keys are enforced")
}

func TestUpdateMemberStats_AppliesEachChallengeOnce(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "H"))
	require.NoError(t, store.AddMember("m2", "Lan", "G"))

	update := club.StatsUpdate{ChallengeID: "c1", WinnerID: "m2", LoserID: "m1", WinnerRacks: 14, LoserRacks: 10}
	require.NoError(t, store.UpdateMemberStats(update))
	require.NoError(t, store.UpdateMemberStats(update), "a repeated challenge is not an error")

	stats, err := store.GetMemberStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "m2", stats[0].MemberID)
	assert.Equal(t, 1, stats[0].MatchesPlayed)
	assert.Equal(t, 14, stats[0].RacksWon)
	assert.Equal(t, 1, stats[1].MatchesPlayed)
	assert.Equal(t, 1, stats[1].MatchesLost)

	t.Run("a failed update can be retried", func(t *testing.T) {
		bad := club.StatsUpdate{ChallengeID: "c2", WinnerID: "m1", LoserID: "ghost"}
		require.Error(t, store.UpdateMemberStats(bad))
		require.NoError(t, store.AddMember("ghost", "Hoa", "H"))
		require.NoError(t, store.UpdateMemberStats(bad))

		stat, err := store.GetMemberStatsByName("hoa")
		require.NoError(t, err)
		assert.Equal(t, 1, stat.MatchesPlayed)
	})
}

func TestGetMemberStatsByName(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Nguyen Van Minh", "H"))
	require.NoError(t, store.AddMember("m2", "Tran Thi Lan", "G"))
	require.NoError(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c1", WinnerID: "m1", LoserID: "m2", WinnerRacks: 8, LoserRacks: 5}))

	t.Run("fuzzy case-insensitive match", func(t *testing.T) {
		stat, err := store.GetMemberStatsByName("minh")
		require.NoError(t, err)
		assert.Equal(t, "Nguyen Van Minh", stat.MemberName)
		assert.Equal(t, 1, stat.MatchesWon)
		assert.Equal(t, 100.0, stat.WinPercentage)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := store.GetMemberStatsByName("hoa")
		assert.ErrorIs(t, err, club.ErrMemberNotFound)
	})
}

func TestClear(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "H"))
	require.NoError(t, store.AddMember("m2", "Lan", "H"))
	require.NoError(t, store.UpdateMemberStats(club.StatsUpdate{ChallengeID: "c1", WinnerID: "m1", LoserID: "m2"}))
	_, err := store.RequestRankVerification("m1", "G", "")
	require.NoError(t, err)

	store.Clear()

	all, err := store.GetAllMembers()
	require.NoError(t, err)
	assert.Empty(t, all)
	pending, err := store.GetPendingRankRequests()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRankVerification(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, store.AddMember("m1", "Minh", "H"))

	t.Run("approve moves the member", func(t *testing.T) {
		req, err := store.RequestRankVerification("m1", "g+", "beat two G players")
		require.NoError(t, err)
		assert.Equal(t, club.RankRequestPending, req.Status)
		assert.Equal(t, "H", req.CurrentRank)
		assert.Equal(t, "G+", req.RequestedRank)

		pending, err := store.GetPendingRankRequests()
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, req.ID, pending[0].ID)
		assert.Equal(t, "Minh", pending[0].MemberName)

		approved, err := store.ApproveRankRequest(req.ID, "referee")
		require.NoError(t, err)
		assert.Equal(t, club.RankRequestApproved, approved.Status)
		require.NotNil(t, approved.DecidedAt)

		m, err := store.GetMember("m1")
		require.NoError(t, err)
		assert.Equal(t, "G+", m.Rank)

		_, err = store.ApproveRankRequest(req.ID, "referee")
		assert.ErrorIs(t, err, club.ErrRankRequestDecided)
		_, err = store.RejectRankRequest(req.ID, "referee", "late")
		assert.ErrorIs(t, err, club.ErrRankRequestDecided)

		stored, err := store.GetRankRequest(req.ID)
		require.NoError(t, err)
		assert.Equal(t, club.RankRequestApproved, stored.Status)
		require.NotNil(t, stored.Reviewer)
		assert.Equal(t, "referee", *stored.Reviewer)
	})

	t.Run("reject keeps the rank", func(t *testing.T) {
		req, err := store.RequestRankVerification("m1", "F", "")
		require.NoError(t, err)

		rejected, err := store.RejectRankRequest(req.ID, "referee", "not enough evidence")
		require.NoError(t, err)
		assert.Equal(t, club.RankRequestRejected, rejected.Status)
		require.NotNil(t, rejected.Reason)
		assert.Equal(t, "not enough evidence", *rejected.Reason)

		m, err := store.GetMember("m1")
		require.NoError(t, err)
		assert.Equal(t, "G+", m.Rank)

		pending, err := store.GetPendingRankRequests()
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := store.RequestRankVerification("m1", "Z", "")
		assert.ErrorIs(t, err, handicap.ErrUnknownRank)
		_, err = store.RequestRankVerification("ghost", "G", "")
		assert.ErrorIs(t, err, club.ErrMemberNotFound)
		_, err = store.ApproveRankRequest("missing", "referee")
		assert.ErrorIs(t, err, club.ErrRankRequestNotFound)
		_, err = store.GetRankRequest("missing")
		assert.ErrorIs(t, err, club.ErrRankRequestNotFound)
	})
}
