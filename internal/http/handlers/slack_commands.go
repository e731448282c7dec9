package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/notifier"
	"github.com/slack-go/slack"
)

const (
	ChallengeUsage = "Usage: /challenge <@member|open> <stake> [when], e.g. /challenge @lan 300 tomorrow at 7pm"
	HandicapUsage  = "Usage: /handicap <challenger rank> <opponent rank> <stake>, e.g. /handicap H G 300"
)

func LeaderboardCommandHandler(store club.ClubStore, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetMemberStats()
		if err != nil {
			http.Error(w, "Failed to get member stats", http.StatusInternalServerError)
			log.Error("Failed to get member stats from store", "error", err)
			return
		}
		msg, err := notifier.FormatLeaderboardResponse(stats)
		respondWithSlackMsg(w, msg, err)
	}
}

func RankLeaderboardCommandHandler(store club.ClubStore, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := store.GetMembersSortedByRank()
		if err != nil {
			http.Error(w, "Failed to get members", http.StatusInternalServerError)
			log.Error("Failed to get members sorted by rank from store", "error", err)
			return
		}
		msg, err := notifier.FormatRankLeaderboardResponse(members)
		respondWithSlackMsg(w, msg, err)
	}
}

func MemberStatsCommandHandler(store club.ClubStore, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(cmd.Text)
		if name == "" {
			http.Error(w, "Member name is required.", http.StatusBadRequest)
			return
		}

		log.Info("Received member stats command", "member", name)
		stats, err := store.GetMemberStatsByName(name)
		if err != nil {
			log.Warn("Could not find member stats", "member", name, "error", err)
			msg, err := notifier.FormatMemberNotFoundResponse(name)
			respondWithSlackMsg(w, msg, err)
			return
		}
		msg, err := notifier.FormatMemberStatsResponse(stats, name)
		respondWithSlackMsg(w, msg, err)
	}
}

func HandicapCommandHandler(resolver *handicap.Resolver, notifier notifier.Notifier, m metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		parts := strings.Fields(cmd.Text)
		if len(parts) != 3 {
			msg, err := notifier.FormatErrorResponse(HandicapUsage)
			respondWithSlackMsg(w, msg, err)
			return
		}
		stake, err := strconv.Atoi(parts[2])
		if err != nil {
			msg, err := notifier.FormatErrorResponse(HandicapUsage)
			respondWithSlackMsg(w, msg, err)
			return
		}

		p := handicap.Proposal{ChallengerRank: parts[0], OpponentRank: parts[1], Stake: stake}
		res, err := resolver.Resolve(p)
		m.IncHandicapResolution(metrics.OutcomeOf(err))
		if err != nil {
			msg, err := notifier.FormatErrorResponse(err.Error())
			respondWithSlackMsg(w, msg, err)
			return
		}
		msg, err := notifier.FormatHandicapResponse(p, res)
		respondWithSlackMsg(w, msg, err)
	}
}

// ChallengeCommandHandler creates a challenge from a slash command. The
// caller is matched to a member through their Slack account.
func ChallengeCommandHandler(store club.ClubStore, challenges challenge.ChallengeStore, notifier notifier.Notifier, loc *time.Location) http.HandlerFunc {
	mapper := club.NewMemberMapper(store)
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		if cmd.UserID == "" {
			http.Error(w, "Missing required Slack form data", http.StatusBadRequest)
			return
		}
		log.Info("Received challenge command", "user", cmd.UserName, "text", cmd.Text)

		challenger, suggestions, err := mapper.FindOrLinkMember(cmd.UserID, cmd.UserName, cmd.UserName)
		if err != nil {
			log.Error("Failed to find member for slack user", "error", err, "user", cmd.UserID)
			http.Error(w, "Failed to process challenge", http.StatusInternalServerError)
			return
		}
		if challenger == nil {
			log.Warn("Slack user is not linked to a member", "user", cmd.UserName, "suggestions", len(suggestions))
			msg, err := notifier.FormatMemberNotFoundResponse(cmd.UserName)
			respondWithSlackMsg(w, msg, err)
			return
		}

		in, err := parseChallengeText(cmd.Text, store, time.Now(), loc)
		if err != nil {
			msg, err := notifier.FormatErrorResponse(err.Error())
			respondWithSlackMsg(w, msg, err)
			return
		}
		in.ChallengerID = challenger.ID

		c, err := challenges.CreateChallenge(in)
		if err != nil {
			if StatusFor(err) == http.StatusInternalServerError {
				log.Error("Failed to create challenge", "error", err)
				http.Error(w, "Failed to create challenge", http.StatusInternalServerError)
				return
			}
			msg, err := notifier.FormatErrorResponse(err.Error())
			respondWithSlackMsg(w, msg, err)
			return
		}
		log.Info("Challenge created via Slack", "id", c.ID, "challenger", c.ChallengerID, "opponent", c.OpponentID)
		msg, err := notifier.FormatChallengeResponse(c)
		respondWithSlackMsg(w, msg, err)
	}
}

var errChallengeUsage = errors.New(ChallengeUsage)

// parseChallengeText reads "<opponent|open> <stake> [when]". The opponent is
// a Slack mention, a member ID or a member name.
func parseChallengeText(text string, store club.ClubStore, now time.Time, loc *time.Location) (challenge.NewChallenge, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return challenge.NewChallenge{}, errChallengeUsage
	}
	stake, err := strconv.Atoi(parts[1])
	if err != nil {
		return challenge.NewChallenge{}, errChallengeUsage
	}
	in := challenge.NewChallenge{Stake: stake}

	if !strings.EqualFold(parts[0], "open") {
		opponent, err := resolveOpponent(parts[0], store)
		if err != nil {
			return challenge.NewChallenge{}, err
		}
		in.OpponentID = opponent.ID
	}

	if len(parts) > 2 {
		at, err := challenge.ParseSchedule(strings.Join(parts[2:], " "), now, loc)
		if err != nil {
			return challenge.NewChallenge{}, err
		}
		in.ScheduledAt = &at
	}
	return in, nil
}

func resolveOpponent(token string, store club.ClubStore) (*club.Member, error) {
	// Slack escapes mentions as <@U123|name>.
	if strings.HasPrefix(token, "<@") && strings.HasSuffix(token, ">") {
		userID, _, _ := strings.Cut(strings.TrimSuffix(strings.TrimPrefix(token, "<@"), ">"), "|")
		return store.GetMemberBySlackUserID(userID)
	}
	token = strings.TrimPrefix(token, "@")
	if m, err := store.GetMember(token); err == nil {
		return m, nil
	}
	members, err := store.GetAllMembers()
	if err != nil {
		return nil, err
	}
	for i := range members {
		if strings.EqualFold(members[i].Name, token) {
			return &members[i], nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", club.ErrMemberNotFound, token)
}
