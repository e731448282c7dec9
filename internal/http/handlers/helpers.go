package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/slack-go/slack"
)

// ContextKey is a custom type to avoid key collisions in context.
type ContextKey string

const (
	DryRunKey ContextKey = "dryRun"
)

// IsDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func IsDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(DryRunKey).(bool)
	return ok && dryRun
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, handicap.ErrUnknownRank),
		errors.Is(err, handicap.ErrInvalidStake),
		errors.Is(err, handicap.ErrRankGapTooLarge),
		errors.Is(err, challenge.ErrInvalidScore),
		errors.Is(err, challenge.ErrInvalidChallenge):
		return http.StatusBadRequest
	case errors.Is(err, challenge.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, challenge.ErrNotFound),
		errors.Is(err, club.ErrMemberNotFound),
		errors.Is(err, club.ErrRankRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, challenge.ErrInvalidTransition),
		errors.Is(err, club.ErrRankRequestDecided):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithError writes err as JSON. Internal errors are logged and hidden
// behind msg.
func respondWithError(w http.ResponseWriter, err error, msg string) {
	status := StatusFor(err)
	text := err.Error()
	if status == http.StatusInternalServerError {
		log.Error(msg, "error", err)
		text = msg
	} else {
		log.Debug("Request rejected", "status", status, "error", err)
	}
	respondWithJSON(w, status, errorResponse{Error: text})
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug("Invalid request body", "error", err)
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg any, err error) {
	if err != nil {
		http.Error(w, "Failed to format response", http.StatusInternalServerError)
		log.Error("Failed to format slack response", "error", err)
		return
	}
	slackMsg, ok := msg.(slack.Message)
	if !ok {
		http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
		log.Error("Failed to cast message to slack.Message")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(slackMsg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}
