package quiet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tz = "Asia/Jerusalem"

func localTime(t *testing.T, year int, month time.Month, day, hour int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	return time.Date(year, month, day, hour, 30, 0, 0, loc)
}

func onTheHour(t *testing.T, year int, month time.Month, day, hour int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	return time.Date(year, month, day, hour, 0, 0, 0, loc)
}

func TestNightlyWindow(t *testing.T) {
	calc, err := NewCalculator(tz)
	require.NoError(t, err)

	start, end := 22, 8

	// Wednesday 23:30 is inside the window.
	now := localTime(t, 2025, time.June, 11, 23)
	chk := calc.Evaluate(now, &start, &end)
	assert.True(t, chk.Suppressed)
	assert.Equal(t, ReasonNightly, chk.Reason)
	assert.Equal(t, onTheHour(t, 2025, time.June, 12, 8), chk.ResumeAt)

	// Wednesday 03:30, still inside, resumes same day.
	now = localTime(t, 2025, time.June, 11, 3)
	chk = calc.Evaluate(now, &start, &end)
	assert.True(t, chk.Suppressed)
	assert.Equal(t, onTheHour(t, 2025, time.June, 11, 8), chk.ResumeAt)

	// Wednesday 10:30 is outside.
	now = localTime(t, 2025, time.June, 11, 10)
	chk = calc.Evaluate(now, &start, &end)
	assert.False(t, chk.Suppressed)
}

func TestNightlyDefaults(t *testing.T) {
	calc, err := NewCalculator(tz)
	require.NoError(t, err)

	// No per-recipient settings: 22:00-08:00 applies.
	chk := calc.Evaluate(localTime(t, 2025, time.June, 11, 23), nil, nil)
	assert.True(t, chk.Suppressed)

	chk = calc.Evaluate(localTime(t, 2025, time.June, 11, 12), nil, nil)
	assert.False(t, chk.Suppressed)
}

func TestNightlyNonWrapping(t *testing.T) {
	calc, err := NewCalculator(tz)
	require.NoError(t, err)

	start, end := 13, 16
	chk := calc.Evaluate(localTime(t, 2025, time.June, 11, 14), &start, &end)
	assert.True(t, chk.Suppressed)
	assert.Equal(t, onTheHour(t, 2025, time.June, 11, 16), chk.ResumeAt)

	chk = calc.Evaluate(localTime(t, 2025, time.June, 11, 17), &start, &end)
	assert.False(t, chk.Suppressed)
}

func TestSabbath(t *testing.T) {
	calc, err := NewCalculator(tz)
	require.NoError(t, err)

	// 2025-06-13 is a Friday.
	friday := localTime(t, 2025, time.June, 13, 17)
	start, end := 10, 11 // unrelated quiet hours must not matter
	chk := calc.Evaluate(friday, &start, &end)
	assert.True(t, chk.Suppressed)
	assert.Equal(t, ReasonSabbath, chk.Reason)
	assert.Equal(t, onTheHour(t, 2025, time.June, 14, 20), chk.ResumeAt)

	// Saturday morning still suppressed.
	saturday := localTime(t, 2025, time.June, 14, 9)
	chk = calc.Evaluate(saturday, nil, nil)
	assert.True(t, chk.Suppressed)
	assert.Equal(t, ReasonSabbath, chk.Reason)

	// Saturday 21:00 is past the window.
	chk = calc.Sabbath(localTime(t, 2025, time.June, 14, 21))
	assert.False(t, chk.Suppressed)

	// Sunday morning is never the Sabbath.
	sunday := localTime(t, 2025, time.June, 15, 9)
	chk = calc.Sabbath(sunday)
	assert.False(t, chk.Suppressed)

	// Friday noon is before candle lighting.
	chk = calc.Sabbath(localTime(t, 2025, time.June, 13, 12))
	assert.False(t, chk.Suppressed)
}
