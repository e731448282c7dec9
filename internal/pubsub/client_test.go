package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsEvent struct {
	WinnerID    string `msgpack:"winner_id"`
	LoserID     string `msgpack:"loser_id"`
	WinnerRacks int    `msgpack:"winner_racks"`
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(statsEvent{WinnerID: "minh", LoserID: "lan", WinnerRacks: 12})
	require.NoError(t, err)

	var got statsEvent
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, statsEvent{WinnerID: "minh", LoserID: "lan", WinnerRacks: 12}, got)

	assert.Error(t, Decode([]byte{0xc1}, &got), "0xc1 is never valid msgpack")
}

func TestMock_RecordsAndDecodes(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.SendMessage(EventUpdateMemberStats, "payload"))

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, EventUpdateMemberStats, calls[0].Topic)

	data, err := Encode(statsEvent{WinnerID: "lan"})
	require.NoError(t, err)
	var got statsEvent
	require.NoError(t, m.ProcessMessage(data, &got))
	assert.Equal(t, "lan", got.WinnerID)

	m.Reset()
	assert.Empty(t, m.Calls())
	m.Close()
	assert.True(t, m.Closed)
}
