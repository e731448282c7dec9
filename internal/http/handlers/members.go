package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/matchmaking"
)

func ListMembersHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			members []club.Member
			err     error
		)
		if r.URL.Query().Get("sort") == "rank" {
			members, err = store.GetMembersSortedByRank()
		} else {
			members, err = store.GetAllMembers()
		}
		if err != nil {
			respondWithError(w, err, "Failed to get members")
			return
		}
		if members == nil {
			members = []club.Member{}
		}
		respondWithJSON(w, http.StatusOK, members)
	}
}

type addMemberRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank"`
}

func AddMemberHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addMemberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ID == "" || req.Name == "" {
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "id and name are required"})
			return
		}
		if IsDryRunFromContext(r) {
			log.Info("[Dry Run] Would add member", "memberID", req.ID, "rank", req.Rank)
			respondWithJSON(w, http.StatusOK, req)
			return
		}
		if err := store.AddMember(req.ID, req.Name, req.Rank); err != nil {
			respondWithError(w, err, "Failed to add member")
			return
		}
		member, err := store.GetMember(req.ID)
		if err != nil {
			respondWithError(w, err, "Failed to get member")
			return
		}
		respondWithJSON(w, http.StatusCreated, member)
	}
}

func GetMemberHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, err := store.GetMember(chi.URLParam(r, "id"))
		if err != nil {
			respondWithError(w, err, "Failed to get member")
			return
		}
		respondWithJSON(w, http.StatusOK, member)
	}
}

type rankRequestBody struct {
	RequestedRank string `json:"requested_rank"`
	Evidence      string `json:"evidence"`
}

func RequestRankHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body rankRequestBody
		if !decodeJSON(w, r, &body) {
			return
		}
		req, err := store.RequestRankVerification(chi.URLParam(r, "id"), body.RequestedRank, body.Evidence)
		if err != nil {
			respondWithError(w, err, "Failed to request rank verification")
			return
		}
		respondWithJSON(w, http.StatusCreated, req)
	}
}

func ListRankRequestsHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqs, err := store.GetPendingRankRequests()
		if err != nil {
			respondWithError(w, err, "Failed to get rank requests")
			return
		}
		if reqs == nil {
			reqs = []club.RankRequest{}
		}
		respondWithJSON(w, http.StatusOK, reqs)
	}
}

type rankDecisionBody struct {
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason"`
}

func ApproveRankRequestHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body rankDecisionBody
		if !decodeJSON(w, r, &body) {
			return
		}
		req, err := store.ApproveRankRequest(chi.URLParam(r, "id"), body.Reviewer)
		if err != nil {
			respondWithError(w, err, "Failed to approve rank request")
			return
		}
		respondWithJSON(w, http.StatusOK, req)
	}
}

func RejectRankRequestHandler(store club.ClubStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body rankDecisionBody
		if !decodeJSON(w, r, &body) {
			return
		}
		req, err := store.RejectRankRequest(chi.URLParam(r, "id"), body.Reviewer, body.Reason)
		if err != nil {
			respondWithError(w, err, "Failed to reject rank request")
			return
		}
		respondWithJSON(w, http.StatusOK, req)
	}
}

// OpponentsHandler lists who a member can fairly challenge. Without a stake
// the lowest one is assumed.
func OpponentsHandler(svc matchmaking.MatchmakingService, stakes *handicap.StakeTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stake := stakes.Stakes()[0]
		if raw := r.URL.Query().Get("stake"); raw != "" {
			var err error
			if stake, err = strconv.Atoi(raw); err != nil {
				respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "stake must be a number"})
				return
			}
		}
		suggestions, err := svc.SuggestOpponents(chi.URLParam(r, "id"), stake)
		if err != nil {
			respondWithError(w, err, "Failed to suggest opponents")
			return
		}
		if suggestions == nil {
			suggestions = []matchmaking.Suggestion{}
		}
		respondWithJSON(w, http.StatusOK, suggestions)
	}
}
