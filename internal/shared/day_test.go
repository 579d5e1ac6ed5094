package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayParseAndFormat(t *testing.T) {
	d, err := ParseDay("2025-03-31")
	require.NoError(t, err)
	require.Equal(t, "2025-03-31", d.String())
	require.Equal(t, 2025, d.Year())

	_, err = ParseDay("31.03.2025")
	require.Error(t, err)
}

func TestDayQuarter(t *testing.T) {
	cases := map[string]int{
		"2025-01-01": 1,
		"2025-03-31": 1,
		"2025-04-01": 2,
		"2025-06-30": 2,
		"2025-07-01": 3,
		"2025-10-01": 4,
		"2025-12-31": 4,
	}
	for date, want := range cases {
		d, err := ParseDay(date)
		require.NoError(t, err)
		require.Equal(t, want, d.Quarter(), date)
	}
}

func TestDayOfDropsTimeOfDay(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 59, 1, 0, time.FixedZone("CEST", 2*3600))
	require.Equal(t, "2025-06-15", DayOf(ts).String())
}

func TestDayJSONRoundTrip(t *testing.T) {
	d, err := ParseDay("2025-02-28")
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2025-02-28"`, string(raw))

	var back Day
	require.NoError(t, json.Unmarshal(raw, &back))
	require.True(t, d.Equal(back))

	var zero Day
	require.NoError(t, json.Unmarshal([]byte(`null`), &zero))
	require.True(t, zero.IsZero())
}

func TestCentsString(t *testing.T) {
	require.Equal(t, "125.50", Cents(12550).String())
	require.Equal(t, "0.00", Cents(0).String())
	require.Equal(t, "-3.07", Cents(-307).String())
}

func TestAuthorize(t *testing.T) {
	admin := Identity{UserID: 1, Role: RoleAdmin}
	trainer := Identity{UserID: 7, Role: RoleTrainer}

	require.NoError(t, Authorize(admin, 7))
	require.NoError(t, Authorize(trainer, 7))
	require.ErrorIs(t, Authorize(trainer, 8), ErrForbidden)
	require.ErrorIs(t, RequireAdmin(trainer), ErrForbidden)
	require.NoError(t, RequireAdmin(admin))
}
