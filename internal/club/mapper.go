package club

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/xrash/smetrics"
)

const (
	autoLinkConfidence = 0.8
	minConfidence      = 0.3
	maxSuggestions     = 5
)

// MemberSuggestion is a candidate member for an unlinked Slack user.
type MemberSuggestion struct {
	Member     Member   `json:"member"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// MemberMapper links Slack users to club members.
type MemberMapper struct {
	store ClubStore
}

func NewMemberMapper(store ClubStore) *MemberMapper {
	return &MemberMapper{store: store}
}

// FindOrLinkMember returns the member linked to slackUserID. When no link
// exists, unlinked members are ranked by name similarity; a match above
// autoLinkConfidence is linked automatically, otherwise the suggestions are
// returned for manual confirmation.
func (mm *MemberMapper) FindOrLinkMember(slackUserID, slackUsername, slackDisplayName string) (*Member, []MemberSuggestion, error) {
	existing, err := mm.store.GetMemberBySlackUserID(slackUserID)
	if err == nil {
		log.Debug("Found existing member link", "slack_user_id", slackUserID, "member", existing.Name)
		return existing, nil, nil
	}
	if !errors.Is(err, ErrMemberNotFound) {
		return nil, nil, err
	}

	members, err := mm.store.GetAllMembers()
	if err != nil {
		return nil, nil, err
	}

	suggestions := rankCandidates(slackUsername, slackDisplayName, members)
	if len(suggestions) > 0 && suggestions[0].Confidence > autoLinkConfidence {
		best := suggestions[0].Member
		if err := mm.store.LinkSlackUser(best.ID, slackUserID); err != nil {
			return nil, nil, err
		}
		best.SlackUserID = &slackUserID
		log.Info("Auto-linked slack user",
			"slack_user_id", slackUserID,
			"member", best.Name,
			"confidence", suggestions[0].Confidence)
		return &best, nil, nil
	}

	return nil, suggestions, nil
}

func rankCandidates(slackUsername, slackDisplayName string, members []Member) []MemberSuggestion {
	var suggestions []MemberSuggestion
	for _, m := range members {
		if m.SlackUserID != nil && *m.SlackUserID != "" {
			continue
		}
		score := nameSimilarity(slackUsername, slackDisplayName, m.Name)
		if score > minConfidence {
			suggestions = append(suggestions, MemberSuggestion{
				Member:     m,
				Confidence: score,
				Reasons:    matchReasons(slackUsername, slackDisplayName, m.Name),
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func nameSimilarity(slackUsername, slackDisplayName, memberName string) float64 {
	username := normalizeName(slackUsername)
	display := normalizeName(slackDisplayName)
	name := normalizeName(memberName)

	var scores []float64
	if username != "" {
		scores = append(scores, stringSimilarity(username, name))
	}
	if display != "" {
		scores = append(scores, stringSimilarity(display, name))
		scores = append(scores, tokenSimilarity(display, name))
	}
	if len(scores) == 0 {
		return 0
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores))
}

// normalizeName lowercases, keeps letters and single spaces.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// tokenSimilarity is the share of name parts with a close counterpart.
func tokenSimilarity(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	matches := 0
	for _, x := range ta {
		for _, y := range tb {
			if stringSimilarity(x, y) > 0.9 {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(max(len(ta), len(tb)))
}

func matchReasons(slackUsername, slackDisplayName, memberName string) []string {
	username := normalizeName(slackUsername)
	display := normalizeName(slackDisplayName)
	name := normalizeName(memberName)

	var reasons []string
	if username != "" && username == name {
		reasons = append(reasons, "Exact username match")
	} else if username != "" && stringSimilarity(username, name) > autoLinkConfidence {
		reasons = append(reasons, "Very similar username")
	}
	if display != "" && display == name {
		reasons = append(reasons, "Exact display name match")
	} else if display != "" && stringSimilarity(display, name) > autoLinkConfidence {
		reasons = append(reasons, "Very similar display name")
	}
	if tokenSimilarity(display, name) > 0.5 {
		reasons = append(reasons, "Matching name components")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Partial name similarity")
	}
	return reasons
}
