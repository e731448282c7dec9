package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func LeaderboardHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetMemberStats()
		if err != nil {
			respondWithError(w, err, "Failed to get member stats")
			return
		}
		if stats == nil {
			stats = []club.MemberStats{}
		}
		respondWithJSON(w, http.StatusOK, stats)
	}
}

// LeaderboardExportHandler serves the leaderboard and rank list as a workbook.
func LeaderboardExportHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetMemberStats()
		if err != nil {
			respondWithError(w, err, "Failed to get member stats")
			return
		}
		members, err := store.GetMembersSortedByRank()
		if err != nil {
			respondWithError(w, err, "Failed to get members")
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
		if err := report.WriteLeaderboard(w, stats, members); err != nil {
			log.Error("Failed to write leaderboard workbook", "error", err)
		}
	}
}
