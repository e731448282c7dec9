package matchmaking

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/handicap"
)

// NewService creates a MatchmakingService over the club's members and
// challenges.
func NewService(members MemberSource, challenges ChallengeSource, resolver *handicap.Resolver) MatchmakingService {
	return &service{members: members, challenges: challenges, resolver: resolver}
}

func (s *service) SuggestOpponents(memberID string, stake int) ([]Suggestion, error) {
	if err := s.resolver.Stakes().Validate(stake); err != nil {
		return nil, err
	}
	me, err := s.members.GetMember(memberID)
	if err != nil {
		return nil, err
	}
	all, err := s.members.GetAllMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	busy, err := s.busyWith(memberID)
	if err != nil {
		return nil, err
	}

	scale := s.resolver.Scale()
	var out []Suggestion
	for _, m := range all {
		if m.ID == me.ID || busy[m.ID] {
			continue
		}
		terms, err := s.resolver.Resolve(handicap.Proposal{ChallengerRank: me.Rank, OpponentRank: m.Rank, Stake: stake})
		if err != nil {
			// Out of range or an unrecognised rank.
			continue
		}
		d, _ := scale.Distance(me.Rank, m.Rank)
		out = append(out, Suggestion{Member: m, Distance: d, Favoured: terms.Favoured(), Terms: terms})
	}

	// Closest in strength first. Equal ranks before a "+" split.
	sort.SliceStable(out, func(i, j int) bool {
		ci := abs(scale.Compare(me.Rank, out[i].Member.Rank))
		cj := abs(scale.Compare(me.Rank, out[j].Member.Rank))
		if ci != cj {
			return ci < cj
		}
		return out[i].Member.Name < out[j].Member.Name
	})
	log.Debug("Suggested opponents", "member", memberID, "stake", stake, "count", len(out))
	return out, nil
}

// busyWith returns the members who already have an undecided challenge with
// memberID.
func (s *service) busyWith(memberID string) (map[string]bool, error) {
	busy := map[string]bool{}
	for _, status := range []challenge.Status{challenge.StatusPending, challenge.StatusAccepted} {
		live, err := s.challenges.ListChallenges(challenge.Filter{Status: status, MemberID: memberID})
		if err != nil {
			return nil, fmt.Errorf("failed to list live challenges: %w", err)
		}
		for _, c := range live {
			busy[c.ChallengerID] = true
			busy[c.OpponentID] = true
		}
	}
	delete(busy, memberID)
	return busy, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
