package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/pubsub"
)

// pushEnvelope is the body Pub/Sub push subscriptions POST to us.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		ID   string `json:"messageId"`
		Data string `json:"data"`
	} `json:"message"`
}

// decodePushedChallenge unwraps a push request into the challenge it carries.
// It writes the error response itself and reports whether decoding worked.
func decodePushedChallenge(w http.ResponseWriter, r *http.Request, client pubsub.PubSubClient, c *challenge.Challenge) bool {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return false
	}
	log.Debug("Received push message", "path", r.URL.Path, "body", string(bodyBytes))

	var msg pushEnvelope
	if err := json.Unmarshal(bodyBytes, &msg); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	rawData, err := base64.StdEncoding.DecodeString(msg.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return false
	}
	if err := client.ProcessMessage(rawData, c); err != nil {
		log.Error("Failed to decode message payload", "error", err, "messageId", msg.Message.ID)
		http.Error(w, "Invalid message payload", http.StatusBadRequest)
		return false
	}
	return true
}

func UpdateMemberStatsHandler(processor ChallengeProcessor, client pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c challenge.Challenge
		if !decodePushedChallenge(w, r, client, &c) {
			return
		}
		if IsDryRunFromContext(r) {
			log.Info("[Dry Run] Would update member stats", "id", c.ID)
			w.Write([]byte("OK"))
			return
		}
		if err := processor.UpdateMemberStats(&c); err != nil {
			log.Error("Failed to update member stats", "error", err, "id", c.ID)
			http.Error(w, "Failed to update member stats", StatusFor(err))
			return
		}
		w.Write([]byte("OK"))
	}
}

func NotifyResultHandler(processor ChallengeProcessor, client pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c challenge.Challenge
		if !decodePushedChallenge(w, r, client, &c) {
			return
		}
		if err := processor.NotifyResult(&c, IsDryRunFromContext(r)); err != nil {
			log.Error("Failed to notify result", "error", err, "id", c.ID)
			http.Error(w, "Failed to notify result", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}
