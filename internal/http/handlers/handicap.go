package handlers

import (
	"net/http"
	"strconv"

	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
)

type handicapResponse struct {
	handicap.Proposal
	handicap.Result
	Favoured handicap.Side `json:"favoured,omitempty"`
}

// HandicapHandler previews the race for a pairing without storing anything.
func HandicapHandler(resolver *handicap.Resolver, m metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		stake, err := strconv.Atoi(q.Get("stake"))
		if err != nil {
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "stake must be a number"})
			return
		}
		p := handicap.Proposal{ChallengerRank: q.Get("challenger"), OpponentRank: q.Get("opponent"), Stake: stake}
		res, err := resolver.Resolve(p)
		m.IncHandicapResolution(metrics.OutcomeOf(err))
		if err != nil {
			respondWithError(w, err, "Failed to resolve handicap")
			return
		}
		respondWithJSON(w, http.StatusOK, handicapResponse{Proposal: p, Result: res, Favoured: res.Favoured()})
	}
}

type stakeRow struct {
	Stake int `json:"stake"`
	handicap.StakeTerms
}

// StakesHandler lists the stake table in ascending stake order.
func StakesHandler(stakes *handicap.StakeTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows := make([]stakeRow, 0, len(stakes.Stakes()))
		for _, stake := range stakes.Stakes() {
			terms, err := stakes.TermsFor(stake)
			if err != nil {
				respondWithError(w, err, "Failed to read stake table")
				return
			}
			rows = append(rows, stakeRow{Stake: stake, StakeTerms: terms})
		}
		respondWithJSON(w, http.StatusOK, rows)
	}
}
