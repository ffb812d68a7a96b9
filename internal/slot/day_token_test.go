package slot

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayTokenDated(t *testing.T) {
	d := Date(2015, time.October, 5)
	assert.Equal(t, "20151005", d.Token())
	assert.False(t, d.IsRegular())
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, Regular(time.Monday), d.Template())
	assert.Equal(t, "Mon, Oct 5 2015", d.Display())

	date, ok := d.Date()
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, time.October, 5, 0, 0, 0, 0, time.UTC), date)

	parsed, err := ParseDayToken("20151005")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestDayTokenRegular(t *testing.T) {
	for n := 1; n <= 7; n++ {
		d := Regular(FromISOWeekday(n))
		assert.True(t, d.IsRegular())

		parsed, err := ParseDayToken(d.Token())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)

		_, ok := d.Date()
		assert.False(t, ok)
	}

	assert.Equal(t, "w7", Regular(time.Sunday).Token())
	assert.Equal(t, "w1", Regular(time.Monday).Token())
	assert.Equal(t, "Every Sunday", Regular(time.Sunday).Display())
}

func TestDayTokenRoundTripOverAYear(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		d := DateOf(start.AddDate(0, 0, i))
		parsed, err := ParseDayToken(d.Token())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
}

func TestParseDayTokenRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "w0", "w8", "wx", "2015-10-05", "20151305", "20150230", "1005", "w10"} {
		_, err := ParseDayToken(s)
		var tokenErr *InvalidTokenError
		assert.True(t, errors.As(err, &tokenErr), "input %q", s)
	}
}

func TestDayTokenJSON(t *testing.T) {
	var body struct {
		Day DayToken `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"w3"}`), &body))
	assert.Equal(t, Regular(time.Wednesday), body.Day)

	assert.Error(t, json.Unmarshal([]byte(`{"day":"tomorrow"}`), &body))

	out, err := json.Marshal(struct {
		Day DayToken `json:"day"`
	}{Day: Date(2015, time.October, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"20151005"}`, string(out))
}

func TestDayTokenScan(t *testing.T) {
	var d DayToken
	require.NoError(t, d.Scan("w2"))
	assert.Equal(t, Regular(time.Tuesday), d)

	require.NoError(t, d.Scan([]byte("20151005")))
	assert.Equal(t, Date(2015, time.October, 5), d)

	assert.Error(t, d.Scan(12))

	_, err := DayToken{}.Value()
	assert.Error(t, err)
}
