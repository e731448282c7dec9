package handicap

import "errors"

// Resolution failures. All three are validation errors: the caller should
// reject the input, never retry it.
var (
	ErrUnknownRank     = errors.New("unknown rank")
	ErrInvalidStake    = errors.New("invalid stake")
	ErrRankGapTooLarge = errors.New("rank gap too large")
)
