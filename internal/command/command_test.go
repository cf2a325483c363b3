package command

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petfeeder/internal/models"
)

func TestForPortion(t *testing.T) {
	cases := []struct {
		name     string
		size     string
		duration int
	}{
		{"small", "small", 2000},
		{"medium", "medium", 4000},
		{"large", "large", 6000},
		{"mixed case and spaces", "  Large ", 6000},
		{"unknown falls back to medium", "huge", 4000},
		{"empty falls back to medium", "", 4000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ForPortion(tc.size)
			assert.Equal(t, FeedAngle, got.Angle)
			assert.Equal(t, tc.duration, got.Duration)
		})
	}
}

func TestNew(t *testing.T) {
	at := time.Date(2025, 3, 1, 7, 30, 0, 0, time.FixedZone("X", 3*3600))

	feed, err := New(models.ActionFeed, models.PortionSmall, at)
	require.NoError(t, err)
	assert.Equal(t, models.ActionFeed, feed.Action)
	assert.Equal(t, FeedAngle, feed.Angle)
	assert.Equal(t, 2000, feed.Duration)
	assert.Equal(t, time.UTC, feed.Timestamp.Location())
	assert.True(t, feed.Timestamp.Equal(at))

	stop, err := New(models.ActionStop, models.PortionLarge, at)
	require.NoError(t, err)
	assert.Equal(t, models.ActionStop, stop.Action)
	assert.Zero(t, stop.Duration)
	assert.Zero(t, stop.Angle)

	_, err = New("spin", "", at)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestEncode_WireLayout(t *testing.T) {
	at := time.Date(2025, 3, 1, 7, 30, 0, 123_000_000, time.UTC)
	cmd, err := New(models.ActionFeed, models.PortionLarge, at)
	require.NoError(t, err)
	cmd.ScheduleID = "sched-1"
	cmd.LogID = "log-1"

	b, err := Encode(cmd)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "feed", raw["action"])
	assert.EqualValues(t, 90, raw["angle"])
	assert.EqualValues(t, 6000, raw["duration"])
	assert.Equal(t, "sched-1", raw["scheduleId"])
	assert.Equal(t, "log-1", raw["logId"])
	assert.Equal(t, "2025-03-01T07:30:00.123Z", raw["timestamp"])
}

func TestEncode_StopOmitsDurationAndCorrelation(t *testing.T) {
	cmd, err := New(models.ActionStop, "", time.Now())
	require.NoError(t, err)
	cmd.Duration = 500 // ignored for stop

	b, err := Encode(cmd)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "duration")
	assert.NotContains(t, raw, "scheduleId")
	assert.NotContains(t, raw, "logId")
	assert.Contains(t, raw, "timestamp")
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, portion := range []string{models.PortionSmall, models.PortionMedium, models.PortionLarge} {
		cmd, err := New(models.ActionFeed, portion, time.Now())
		require.NoError(t, err)

		b, err := Encode(cmd)
		require.NoError(t, err)
		got, err := Decode(b)
		require.NoError(t, err)

		assert.Equal(t, cmd.Action, got.Action, portion)
		assert.Equal(t, cmd.Angle, got.Angle, portion)
		assert.Equal(t, cmd.Duration, got.Duration, portion)
		assert.WithinDuration(t, cmd.Timestamp, got.Timestamp, time.Millisecond)
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"action":"dance","angle":1}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Decode([]byte(`{"action":"feed","angle":1,"timestamp":"yesterday"}`))
	assert.Error(t, err)
}
