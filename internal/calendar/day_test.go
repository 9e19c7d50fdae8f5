package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Day
		wantErr bool
	}{
		{name: "plain date", input: "2025-01-02", want: Date(2025, time.January, 2)},
		{name: "padded", input: "  2025-01-02 ", want: Date(2025, time.January, 2)},
		{name: "utc timestamp", input: "2025-01-02T00:00:00.000Z", want: Date(2025, time.January, 2)},
		{name: "offset keeps written date", input: "2025-01-02T23:30:00-08:00", want: Date(2025, time.January, 2)},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "tomorrow", wantErr: true},
		{name: "impossible day", input: "2025-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDayArithmetic(t *testing.T) {
	d := Date(2024, time.February, 28)

	assert.Equal(t, Date(2024, time.February, 29), d.AddDays(1))
	assert.Equal(t, Date(2024, time.March, 1), d.AddDays(2))
	assert.Equal(t, Date(2023, time.December, 31), Date(2024, time.January, 1).AddDays(-1))
	assert.Equal(t, 2, d.DaysUntil(Date(2024, time.March, 1)))
	assert.Equal(t, -2, Date(2024, time.March, 1).DaysUntil(d))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, 0, d.Compare(Date(2024, time.February, 28)))
	assert.Equal(t, "2024-02-28", d.String())
}

func TestFromTimeUsesOwnLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	instant := time.Date(2025, time.March, 10, 1, 0, 0, 0, tokyo)

	assert.Equal(t, Date(2025, time.March, 10), FromTime(instant))
	assert.Equal(t, Date(2025, time.March, 9), FromTime(instant.UTC()))
}

func TestDayJSON(t *testing.T) {
	type payload struct {
		Date Day `json:"date"`
	}

	raw, err := json.Marshal(payload{Date: Date(2025, time.July, 4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-07-04"}`, string(raw))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-07-04"}`), &decoded))
	assert.Equal(t, Date(2025, time.July, 4), decoded.Date)

	require.Error(t, json.Unmarshal([]byte(`{"date":"07/04/2025"}`), &decoded))
}

func TestDaySQLRoundTrip(t *testing.T) {
	d := Date(2025, time.May, 1)

	value, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01", value)

	zero, err := Day{}.Value()
	require.NoError(t, err)
	assert.Nil(t, zero)

	cases := []any{
		"2025-05-01",
		[]byte("2025-05-01"),
		"2025-05-01 00:00:00+00:00",
		time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, src := range cases {
		var scanned Day
		require.NoError(t, scanned.Scan(src), "scan %T", src)
		assert.Equal(t, d, scanned)
	}

	var scanned Day
	require.Error(t, scanned.Scan(42))
}

func TestRange(t *testing.T) {
	start := Date(2025, time.January, 1)
	r, err := NewRange(start, start.AddDays(4))
	require.NoError(t, err)

	assert.Equal(t, 5, r.Len())
	assert.True(t, r.Contains(start.AddDays(4)))
	assert.False(t, r.Contains(start.AddDays(5)))
	assert.False(t, r.Contains(start.AddDays(-1)))
	assert.True(t, r.Covers(Range{Start: start.AddDays(1), End: start.AddDays(3)}))
	assert.False(t, r.Covers(Range{Start: start.AddDays(3), End: start.AddDays(6)}))

	days := r.Days()
	require.Len(t, days, 5)
	assert.Equal(t, start, days[0])
	assert.Equal(t, start.AddDays(4), days[4])

	truncated := r.Truncate(2)
	assert.Equal(t, 2, truncated.Len())
	assert.Equal(t, start.AddDays(1), truncated.End)
	assert.Equal(t, r, r.Truncate(0))

	_, err = NewRange(start, start.AddDays(-1))
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewRange(Day{}, start)
	require.ErrorIs(t, err, ErrInvalidRange)

	single, err := NewRange(start, start)
	require.NoError(t, err)
	assert.Equal(t, 1, single.Len())
}
