package report

import (
	"bytes"
	"testing"

	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteLeaderboard(t *testing.T) {
	stats := []club.MemberStats{
		{MemberName: "Minh", Rank: "H", MatchesPlayed: 3, MatchesWon: 2, MatchesLost: 1, RacksWon: 31, RacksLost: 30, WinPercentage: 66.6666},
		{MemberName: "Lan", Rank: "G", MatchesPlayed: 3, MatchesWon: 1, MatchesLost: 2, RacksWon: 30, RacksLost: 31, WinPercentage: 33.3333},
	}
	members := []club.Member{{Name: "Em", Rank: "E"}, {Name: "Lan", Rank: "G"}, {Name: "Minh", Rank: "H"}}

	var buf bytes.Buffer
	require.NoError(t, WriteLeaderboard(&buf, stats, members))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{LeaderboardSheet, RanksSheet}, f.GetSheetList())

	rows, err := f.GetRows(LeaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Member", rows[0][1])
	assert.Equal(t, []string{"1", "Minh", "H", "3", "2", "1", "31", "30", "66.67"}, rows[1])
	assert.Equal(t, "Lan", rows[2][1])

	rows, err = f.GetRows(RanksSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"1", "Em", "E"}, rows[1])
	assert.Equal(t, []string{"3", "Minh", "H"}, rows[3])
}

func TestLeaderboardWorkbook_Empty(t *testing.T) {
	f, err := LeaderboardWorkbook(nil, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LeaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the header")
	assert.Len(t, rows[0], 9)
}
