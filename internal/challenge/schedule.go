package challenge

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	scheduleParser = newScheduleParser()
	compactClock   = regexp.MustCompile(`\b(\d{1,2})(\d{2})\s?(am|pm)\b`)
)

func newScheduleParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseSchedule turns free text such as "tomorrow at 7pm" or an RFC 3339
// timestamp into a time in loc. Times in the past are rejected.
func ParseSchedule(text string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	input := strings.TrimSpace(text)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty schedule", ErrInvalidChallenge)
	}
	base := now.In(loc)

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return futureOnly(t.In(loc), base)
	}

	// "930pm" -> "9:30 pm"
	input = compactClock.ReplaceAllString(strings.ToLower(input), "$1:$2 $3")

	r, err := scheduleParser.Parse(input, base)
	if err != nil {
		log.Warn("Failed to parse schedule", "input", input, "error", err)
		return time.Time{}, fmt.Errorf("%w: could not parse schedule %q: %v", ErrInvalidChallenge, text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: could not recognise a time in %q", ErrInvalidChallenge, text)
	}
	log.Debug("Parsed schedule", "input", input, "time", r.Time.Format(time.RFC3339))
	return futureOnly(r.Time.In(loc), base)
}

func futureOnly(t, base time.Time) (time.Time, error) {
	t = t.Truncate(time.Minute)
	if t.Before(base.Truncate(time.Minute)) {
		return time.Time{}, fmt.Errorf("%w: schedule %s is in the past", ErrInvalidChallenge, t.Format(time.RFC3339))
	}
	return t, nil
}
