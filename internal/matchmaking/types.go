package matchmaking

import (
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
)

// Suggestion is one eligible opponent and the terms a challenge against
// them would be played on.
type Suggestion struct {
	Member   club.Member     `json:"member"`
	Distance int             `json:"distance"`
	Favoured handicap.Side   `json:"favoured"`
	Terms    handicap.Result `json:"terms"`
}

type service struct {
	members    MemberSource
	challenges ChallengeSource
	resolver   *handicap.Resolver
}
