package slot

import (
	"errors"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTokens() []TimeToken {
	tokens := make([]TimeToken, 0)
	for t := DayStart; !DayEnd.Before(t); t = t.step() {
		tokens = append(tokens, t)
	}
	return tokens
}

func TestTimeTokenRoundTrip(t *testing.T) {
	tokens := allTokens()
	require.Len(t, tokens, 49)

	for _, tok := range tokens {
		parsed, err := ParseTimeToken(tok.Token())
		require.NoError(t, err)
		assert.Equal(t, tok, parsed)
	}
}

func TestParseTimeTokenRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "930", "09:30", "0915", "2430", "2500", "ab00", "0960", "-030"} {
		_, err := ParseTimeToken(s)
		var tokenErr *InvalidTokenError
		assert.True(t, errors.As(err, &tokenErr), "input %q", s)
	}
}

func TestNewTimeToken(t *testing.T) {
	tok, err := NewTimeToken(time.Date(2015, 10, 5, 13, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "1330", tok.Token())

	_, err = NewTimeToken(time.Date(2015, 10, 5, 13, 45, 0, 0, time.UTC))
	assert.Error(t, err)

	_, err = NewTimeToken(time.Date(2015, 10, 5, 13, 30, 5, 0, time.UTC))
	assert.Error(t, err)
}

func TestTimeTokenNext(t *testing.T) {
	next, err := MustTimeToken(9, 30).Next()
	require.NoError(t, err)
	assert.Equal(t, MustTimeToken(10, 0), next)

	last, err := MustTimeToken(23, 30).Next()
	require.NoError(t, err)
	assert.Equal(t, DayEnd, last)

	_, err = DayEnd.Next()
	var rangeErr *OutOfRangeError
	assert.True(t, errors.As(err, &rangeErr))
}

func TestTimeTokenDisplay(t *testing.T) {
	cases := map[TimeToken]string{
		MustTimeToken(0, 0):   "12:00AM",
		MustTimeToken(9, 0):   "9:00AM",
		MustTimeToken(11, 30): "11:30AM",
		MustTimeToken(12, 0):  "12:00PM",
		MustTimeToken(15, 30): "3:30PM",
		DayEnd:                "12:00AM",
	}
	for tok, want := range cases {
		assert.Equal(t, want, tok.Display())
	}
}

func TestTimeTokenOnKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// clocks spring forward at 2:00 and fall back at 2:00
	for _, day := range []time.Time{
		time.Date(2025, time.March, 9, 0, 0, 0, 0, ny),
		time.Date(2025, time.November, 2, 0, 0, 0, 0, ny),
	} {
		got := MustTimeToken(9, 0).On(day)
		assert.Equal(t, 9, got.Hour(), "day %s", day.Format(time.DateOnly))
		assert.Equal(t, 0, got.Minute())
		assert.Equal(t, day.Day(), got.Day())

		end := DayEnd.On(day)
		assert.Equal(t, time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, ny), end)
	}

	got := MustTimeToken(13, 30).On(time.Date(2015, time.October, 5, 18, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2015, time.October, 5, 13, 30, 0, 0, time.UTC), got)
}

func TestIntervalScenario(t *testing.T) {
	seq, err := Interval(MustTimeToken(9, 0), MustTimeToken(11, 0))
	require.NoError(t, err)

	want := []TimeToken{MustTimeToken(9, 0), MustTimeToken(9, 30), MustTimeToken(10, 0), MustTimeToken(10, 30)}
	assert.Equal(t, want, slices.Collect(seq))
	// the sequence can be consumed again
	assert.Equal(t, want, slices.Collect(seq))
}

func TestIntervalLengthMatchesWidths(t *testing.T) {
	tokens := allTokens()
	for i, start := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			end := tokens[j]
			seq, err := Interval(start, end)
			require.NoError(t, err)
			got := slices.Collect(seq)
			assert.Len(t, got, j-i)

			slots := Combine(got)
			require.Len(t, slots, 1)
			assert.Equal(t, TimeSlot{Start: start, End: end}, slots[0])
		}
	}
}

func TestIntervalRejectsEmptyRange(t *testing.T) {
	for _, pair := range [][2]TimeToken{
		{MustTimeToken(9, 0), MustTimeToken(9, 0)},
		{MustTimeToken(10, 0), MustTimeToken(9, 0)},
	} {
		_, err := Interval(pair[0], pair[1])
		var rangeErr *InvalidRangeError
		assert.True(t, errors.As(err, &rangeErr))
	}
}

func TestIntervalStopsEarly(t *testing.T) {
	seq, err := Interval(MustTimeToken(9, 0), MustTimeToken(17, 0))
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestChoices(t *testing.T) {
	choices, err := Choices(MustTimeToken(7, 0), MustTimeToken(8, 0))
	require.NoError(t, err)
	assert.Equal(t, []Choice{
		{Token: "0700", Label: "7:00AM"},
		{Token: "0730", Label: "7:30AM"},
		{Token: "0800", Label: "8:00AM"},
	}, choices)

	_, err = Choices(MustTimeToken(8, 0), MustTimeToken(7, 0))
	assert.Error(t, err)
}

func TestTimeTokenScan(t *testing.T) {
	var tok TimeToken
	require.NoError(t, tok.Scan("09:30:00"))
	assert.Equal(t, MustTimeToken(9, 30), tok)

	require.NoError(t, tok.Scan([]byte("24:00:00")))
	assert.Equal(t, DayEnd, tok)

	assert.Error(t, tok.Scan("09:31:00"))
	assert.Error(t, tok.Scan("09:30:15"))
	assert.Error(t, tok.Scan(42))

	v, err := MustTimeToken(13, 0).Value()
	require.NoError(t, err)
	assert.Equal(t, "13:00:00", v)
}

func TestTimeTokenText(t *testing.T) {
	b, err := MustTimeToken(9, 30).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "0930", string(b))

	var tok TimeToken
	require.NoError(t, tok.UnmarshalText([]byte("1400")))
	assert.Equal(t, MustTimeToken(14, 0), tok)
	assert.Error(t, tok.UnmarshalText([]byte("14:00")))
}
