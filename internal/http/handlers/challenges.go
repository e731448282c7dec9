package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/sabo-club/internal/challenge"
)

// ChallengeProcessor runs the challenge state machine and its Pub/Sub side effects.
type ChallengeProcessor interface {
	ProcessChallenges(dryRun bool)
	NotifyResult(c *challenge.Challenge, dryRun bool) error
	UpdateMemberStats(c *challenge.Challenge) error
}

type createChallengeRequest struct {
	challenge.NewChallenge
	// When is free text such as "tomorrow at 7pm". It is ignored when
	// scheduled_at is set.
	When string `json:"when,omitempty"`
}

func CreateChallengeHandler(store challenge.ChallengeStore, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createChallengeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in := req.NewChallenge
		if in.ScheduledAt == nil && req.When != "" {
			at, err := challenge.ParseSchedule(req.When, time.Now(), loc)
			if err != nil {
				respondWithError(w, err, "Failed to parse schedule")
				return
			}
			in.ScheduledAt = &at
		}
		c, err := store.CreateChallenge(in)
		if err != nil {
			respondWithError(w, err, "Failed to create challenge")
			return
		}
		log.Info("Challenge created via API", "id", c.ID, "challenger", c.ChallengerID, "opponent", c.OpponentID, "stake", c.Stake)
		respondWithJSON(w, http.StatusCreated, c)
	}
}

func ListChallengesHandler(store challenge.ChallengeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		challenges, err := store.ListChallenges(challenge.Filter{
			Status:   challenge.Status(q.Get("status")),
			MemberID: q.Get("member"),
		})
		if err != nil {
			respondWithError(w, err, "Failed to get challenges")
			return
		}
		if challenges == nil {
			challenges = []challenge.Challenge{}
		}
		respondWithJSON(w, http.StatusOK, challenges)
	}
}

func GetChallengeHandler(store challenge.ChallengeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetChallenge(chi.URLParam(r, "id"))
		if err != nil {
			respondWithError(w, err, "Failed to get challenge")
			return
		}
		respondWithJSON(w, http.StatusOK, c)
	}
}

type memberActionRequest struct {
	MemberID string `json:"member_id"`
}

type transitionFunc func(id, memberID string) (*challenge.Challenge, error)

// ChallengeActionHandler serves accept, decline and cancel, which all take
// the acting member in the body.
func ChallengeActionHandler(action string, transition transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req memberActionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.MemberID == "" {
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "member_id is required"})
			return
		}
		id := chi.URLParam(r, "id")
		c, err := transition(id, req.MemberID)
		if err != nil {
			respondWithError(w, err, fmt.Sprintf("Failed to %s challenge", action))
			return
		}
		log.Info("Challenge updated", "id", id, "action", action, "member", req.MemberID, "status", c.Status)
		respondWithJSON(w, http.StatusOK, c)
	}
}

type scoreRequest struct {
	ChallengerRacks *int `json:"challenger_racks"`
	OpponentRacks   *int `json:"opponent_racks"`
}

func SubmitScoreHandler(store challenge.ChallengeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ChallengerRacks == nil || req.OpponentRacks == nil {
			respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "challenger_racks and opponent_racks are required"})
			return
		}
		c, err := store.SubmitScore(chi.URLParam(r, "id"), *req.ChallengerRacks, *req.OpponentRacks)
		if err != nil {
			respondWithError(w, err, "Failed to submit score")
			return
		}
		respondWithJSON(w, http.StatusOK, c)
	}
}

func ProcessChallengesHandler(processor ChallengeProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting challenge processing...")
		processor.ProcessChallenges(IsDryRunFromContext(r))

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Challenge processing completed.")
		log.Info("Challenge processing finished.")
	}
}
