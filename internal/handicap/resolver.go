package handicap

import "fmt"

// Side identifies one player of a challenge.
type Side string

const (
	SideNone       Side = ""
	SideChallenger Side = "challenger"
	SideOpponent   Side = "opponent"
)

// Proposal is a pairing to resolve.
type Proposal struct {
	ChallengerRank string `json:"challenger_rank"`
	OpponentRank   string `json:"opponent_rank"`
	Stake          int    `json:"stake"`
}

// Result is the race length and the racks credited to each side before the
// first rack. At most one handicap is non-zero.
type Result struct {
	RaceTo             int     `json:"race_to"`
	ChallengerHandicap float64 `json:"challenger_handicap"`
	OpponentHandicap   float64 `json:"opponent_handicap"`
}

// Favoured returns the side receiving the handicap, or SideNone.
func (r Result) Favoured() Side {
	switch {
	case r.ChallengerHandicap > 0:
		return SideChallenger
	case r.OpponentHandicap > 0:
		return SideOpponent
	}
	return SideNone
}

// HandicapFor returns the racks credited to a side.
func (r Result) HandicapFor(side Side) float64 {
	switch side {
	case SideChallenger:
		return r.ChallengerHandicap
	case SideOpponent:
		return r.OpponentHandicap
	}
	return 0
}

// Resolver decides race length and handicap for a pairing. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	scale  *RankScale
	stakes *StakeTable
}

// NewResolver builds a resolver over a rank scale and stake table.
func NewResolver(scale *RankScale, stakes *StakeTable) *Resolver {
	return &Resolver{scale: scale, stakes: stakes}
}

// Default returns a resolver over DefaultScale and DefaultStakes.
func Default() *Resolver {
	return NewResolver(DefaultScale, DefaultStakes)
}

// Scale returns the rank scale the resolver uses.
func (r *Resolver) Scale() *RankScale { return r.scale }

// Stakes returns the stake table the resolver uses.
func (r *Resolver) Stakes() *StakeTable { return r.stakes }

// Resolve validates the stake, then the ranks, and returns the race-to and
// per-side handicap. The weaker player always receives the handicap. Pairings
// more than one letter apart are rejected with ErrRankGapTooLarge.
func (r *Resolver) Resolve(p Proposal) (Result, error) {
	terms, err := r.stakes.TermsFor(p.Stake)
	if err != nil {
		return Result{}, err
	}

	ci, err := r.scale.IndexOf(p.ChallengerRank)
	if err != nil {
		return Result{}, fmt.Errorf("challenger: %w", err)
	}
	oi, err := r.scale.IndexOf(p.OpponentRank)
	if err != nil {
		return Result{}, fmt.Errorf("opponent: %w", err)
	}

	diff, err := r.scale.Distance(p.ChallengerRank, p.OpponentRank)
	if err != nil {
		return Result{}, err
	}
	if diff > 1 {
		return Result{}, fmt.Errorf("%w: %s vs %s is %d grades apart", ErrRankGapTooLarge, p.ChallengerRank, p.OpponentRank, diff)
	}

	res := Result{RaceTo: terms.RaceTo}
	switch {
	case diff == 1 && ci > oi:
		res.ChallengerHandicap = terms.Magnitudes.MainRank
	case diff == 1:
		res.OpponentHandicap = terms.Magnitudes.MainRank
	case HasPlus(p.ChallengerRank) == HasPlus(p.OpponentRank):
		// same grade, no handicap
	case HasPlus(p.OpponentRank):
		res.ChallengerHandicap = terms.Magnitudes.SubRank
	default:
		res.OpponentHandicap = terms.Magnitudes.SubRank
	}
	return res, nil
}
