package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, loc)

	t.Run("natural language", func(t *testing.T) {
		got, err := ParseSchedule("tomorrow at 7pm", now, loc)
		require.NoError(t, err)
		assert.Equal(t, 2026, got.Year())
		assert.Equal(t, time.October, got.Month())
		assert.Equal(t, 20, got.Day())
		assert.Equal(t, 19, got.Hour())
		assert.Equal(t, loc, got.Location())
	})

	t.Run("compact clock", func(t *testing.T) {
		got, err := ParseSchedule("today at 930pm", now, loc)
		require.NoError(t, err)
		assert.Equal(t, 19, got.Day())
		assert.Equal(t, 21, got.Hour())
		assert.Equal(t, 30, got.Minute())
	})

	t.Run("RFC 3339", func(t *testing.T) {
		got, err := ParseSchedule("2026-10-21T12:00:00Z", now, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 10, 21, 19, 0, 0, 0, loc).Unix(), got.Unix())
	})

	t.Run("rejections", func(t *testing.T) {
		for _, input := range []string{"", "   ", "whenever suits", "2026-10-01T12:00:00Z"} {
			_, err := ParseSchedule(input, now, loc)
			assert.ErrorIs(t, err, ErrInvalidChallenge, "input %q", input)
		}
	})
}
