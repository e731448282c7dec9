package handicap

import (
	"fmt"
	"sort"
)

// Magnitudes are the handicap sizes, in racks, for a stake.
type Magnitudes struct {
	// MainRank applies to a one letter gap.
	MainRank float64 `json:"main_rank"`
	// SubRank applies to a "+" difference within the same letter.
	SubRank float64 `json:"sub_rank"`
}

// StakeTerms is one row of the stake table.
type StakeTerms struct {
	RaceTo     int        `json:"race_to"`
	Magnitudes Magnitudes `json:"magnitudes"`
}

// StakeTable maps each permitted stake to its race length and handicap
// magnitudes. It is immutable once built.
type StakeTable struct {
	terms  map[int]StakeTerms
	stakes []int
}

// DefaultStakes is the SABO table for the six canonical stakes.
var DefaultStakes = MustStakeTable(map[int]StakeTerms{
	100: {RaceTo: 8, Magnitudes: Magnitudes{MainRank: 1.0, SubRank: 0.5}},
	200: {RaceTo: 12, Magnitudes: Magnitudes{MainRank: 1.5, SubRank: 1.0}},
	300: {RaceTo: 14, Magnitudes: Magnitudes{MainRank: 2.0, SubRank: 1.5}},
	400: {RaceTo: 16, Magnitudes: Magnitudes{MainRank: 2.5, SubRank: 1.5}},
	500: {RaceTo: 18, Magnitudes: Magnitudes{MainRank: 3.0, SubRank: 2.0}},
	600: {RaceTo: 22, Magnitudes: Magnitudes{MainRank: 3.5, SubRank: 2.5}},
})

// NewStakeTable validates every row and returns the table.
func NewStakeTable(rows map[int]StakeTerms) (*StakeTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("stake table must not be empty")
	}
	t := &StakeTable{
		terms:  make(map[int]StakeTerms, len(rows)),
		stakes: make([]int, 0, len(rows)),
	}
	for stake, terms := range rows {
		switch {
		case stake <= 0:
			return nil, fmt.Errorf("stake %d must be positive", stake)
		case terms.RaceTo <= 0:
			return nil, fmt.Errorf("stake %d: race-to must be positive, got %d", stake, terms.RaceTo)
		case terms.Magnitudes.MainRank < 0 || terms.Magnitudes.SubRank < 0:
			return nil, fmt.Errorf("stake %d: handicap magnitudes must not be negative", stake)
		case terms.Magnitudes.SubRank > terms.Magnitudes.MainRank:
			return nil, fmt.Errorf("stake %d: sub-rank handicap %.1f exceeds main-rank handicap %.1f", stake, terms.Magnitudes.SubRank, terms.Magnitudes.MainRank)
		case float64(terms.RaceTo) <= terms.Magnitudes.MainRank:
			return nil, fmt.Errorf("stake %d: handicap %.1f would decide a race to %d", stake, terms.Magnitudes.MainRank, terms.RaceTo)
		}
		t.terms[stake] = terms
		t.stakes = append(t.stakes, stake)
	}
	sort.Ints(t.stakes)
	return t, nil
}

// MustStakeTable is NewStakeTable for package-level configuration. It panics
// on an invalid table.
func MustStakeTable(rows map[int]StakeTerms) *StakeTable {
	t, err := NewStakeTable(rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Validate reports ErrInvalidStake unless stake is in the table.
func (t *StakeTable) Validate(stake int) error {
	_, err := t.TermsFor(stake)
	return err
}

// TermsFor returns the full row for a stake.
func (t *StakeTable) TermsFor(stake int) (StakeTerms, error) {
	terms, ok := t.terms[stake]
	if !ok {
		return StakeTerms{}, fmt.Errorf("%w: %d (allowed: %v)", ErrInvalidStake, stake, t.stakes)
	}
	return terms, nil
}

// RaceToFor returns the number of racks needed to win at this stake.
func (t *StakeTable) RaceToFor(stake int) (int, error) {
	terms, err := t.TermsFor(stake)
	if err != nil {
		return 0, err
	}
	return terms.RaceTo, nil
}

// HandicapMagnitudesFor returns the main and sub rank handicap for a stake.
func (t *StakeTable) HandicapMagnitudesFor(stake int) (Magnitudes, error) {
	terms, err := t.TermsFor(stake)
	if err != nil {
		return Magnitudes{}, err
	}
	return terms.Magnitudes, nil
}

// Stakes returns the permitted stakes in ascending order.
func (t *StakeTable) Stakes() []int {
	out := make([]int, len(t.stakes))
	copy(out, t.stakes)
	return out
}
