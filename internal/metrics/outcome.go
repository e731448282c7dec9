package metrics

import (
	"errors"

	"github.com/mauv0809/sabo-club/internal/handicap"
)

// OutcomeOf maps a handicap resolution error to its outcome label.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, handicap.ErrUnknownRank):
		return OutcomeUnknownRank
	case errors.Is(err, handicap.ErrInvalidStake):
		return OutcomeInvalidStake
	case errors.Is(err, handicap.ErrRankGapTooLarge):
		return OutcomeRankGapTooLarge
	}
	return OutcomeError
}
