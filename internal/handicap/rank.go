package handicap

import (
	"fmt"
	"strings"
)

// PlusSuffix marks the half step above a base letter, e.g. "G+".
const PlusSuffix = "+"

// RankScale is an ordered list of base rank letters. Index 0 is the strongest
// grade, so a higher index always means a weaker player.
type RankScale struct {
	letters []string
	index   map[string]int
}

// DefaultScale is the SABO scale from E (strongest) down to K.
var DefaultScale = MustRankScale("E", "F", "G", "H", "I", "K")

// NewRankScale builds a scale from letters ordered strongest first.
func NewRankScale(letters ...string) (*RankScale, error) {
	if len(letters) == 0 {
		return nil, fmt.Errorf("rank scale must contain at least one letter")
	}
	s := &RankScale{
		letters: make([]string, 0, len(letters)),
		index:   make(map[string]int, len(letters)),
	}
	for _, l := range letters {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" || strings.HasSuffix(l, PlusSuffix) {
			return nil, fmt.Errorf("invalid rank letter %q", l)
		}
		if _, dup := s.index[l]; dup {
			return nil, fmt.Errorf("duplicate rank letter %q", l)
		}
		s.index[l] = len(s.letters)
		s.letters = append(s.letters, l)
	}
	return s, nil
}

// MustRankScale is NewRankScale for package-level configuration. It panics on
// an invalid scale.
func MustRankScale(letters ...string) *RankScale {
	s, err := NewRankScale(letters...)
	if err != nil {
		panic(err)
	}
	return s
}

// Letters returns the base letters, strongest first.
func (s *RankScale) Letters() []string {
	out := make([]string, len(s.letters))
	copy(out, s.letters)
	return out
}

// Labels returns every valid label, strongest first, with each "+" grade
// listed above its plain letter.
func (s *RankScale) Labels() []string {
	out := make([]string, 0, len(s.letters)*2)
	for _, l := range s.letters {
		out = append(out, l+PlusSuffix, l)
	}
	return out
}

// IndexOf returns the position of the label's base letter.
func (s *RankScale) IndexOf(label string) (int, error) {
	base := baseLetter(label)
	i, ok := s.index[base]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRank, label)
	}
	return i, nil
}

// HasPlus reports whether the label carries the "+" sub-grade.
func HasPlus(label string) bool {
	return strings.HasSuffix(strings.TrimSpace(label), PlusSuffix)
}

// Distance is the absolute difference between the base letters of a and b.
// The "+" sub-grade is ignored.
func (s *RankScale) Distance(a, b string) (int, error) {
	ia, err := s.IndexOf(a)
	if err != nil {
		return 0, err
	}
	ib, err := s.IndexOf(b)
	if err != nil {
		return 0, err
	}
	if ia > ib {
		return ia - ib, nil
	}
	return ib - ia, nil
}

// Normalize returns the canonical form of a label ("g+ " -> "G+").
func (s *RankScale) Normalize(label string) (string, error) {
	if _, err := s.IndexOf(label); err != nil {
		return "", err
	}
	n := baseLetter(label)
	if HasPlus(label) {
		n += PlusSuffix
	}
	return n, nil
}

// Compare orders two labels by strength: negative when a is stronger than b,
// positive when weaker, zero when equal. Unknown labels sort last.
func (s *RankScale) Compare(a, b string) int {
	return s.position(a) - s.position(b)
}

// position maps a label onto a half-step line where "+" sits just above its
// letter.
func (s *RankScale) position(label string) int {
	i, err := s.IndexOf(label)
	if err != nil {
		return len(s.letters) * 2
	}
	if HasPlus(label) {
		return i * 2
	}
	return i*2 + 1
}

func baseLetter(label string) string {
	l := strings.ToUpper(strings.TrimSpace(label))
	return strings.TrimSpace(strings.TrimSuffix(l, PlusSuffix))
}
