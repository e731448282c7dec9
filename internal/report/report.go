// Package report exports club standings as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/xuri/excelize/v2"
)

const (
	LeaderboardSheet = "Leaderboard"
	RanksSheet       = "Ranks"
)

var (
	leaderboardHeader = []any{"#", "Member", "Rank", "Played", "Won", "Lost", "Racks won", "Racks lost", "Win %"}
	ranksHeader       = []any{"#", "Member", "Rank"}
)

// LeaderboardWorkbook builds a workbook with the results leaderboard on one
// sheet and the members ordered by rank on another. Rows keep the order of
// the slices they are built from.
func LeaderboardWorkbook(stats []club.MemberStats, members []club.Member) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), LeaderboardSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name leaderboard sheet: %w", err)
	}
	if _, err := f.NewSheet(RanksSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to add ranks sheet: %w", err)
	}

	rows := make([][]any, 0, len(stats)+1)
	rows = append(rows, leaderboardHeader)
	for i, s := range stats {
		rows = append(rows, []any{
			i + 1, s.MemberName, s.Rank, s.MatchesPlayed, s.MatchesWon, s.MatchesLost,
			s.RacksWon, s.RacksLost, roundPercent(s.WinPercentage),
		})
	}
	if err := writeRows(f, LeaderboardSheet, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{ranksHeader}
	for i, m := range members {
		rows = append(rows, []any{i + 1, m.Name, m.Rank})
	}
	if err := writeRows(f, RanksSheet, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteLeaderboard streams the leaderboard workbook to w.
func WriteLeaderboard(w io.Writer, stats []club.MemberStats, members []club.Member) error {
	f, err := LeaderboardWorkbook(stats, members)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", idx+1, sheet, err)
		}
	}
	return nil
}

func roundPercent(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
