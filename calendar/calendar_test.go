package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_TruncatesInOwnLocation(t *testing.T) {
	bucharest := time.FixedZone("EET", 2*60*60)
	late := time.Date(2026, time.March, 10, 23, 30, 0, 0, bucharest)

	d := DateOf(late)
	assert.Equal(t, NewDate(2026, time.March, 10), d)
	assert.Equal(t, "2026-03-10", d.String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2026, time.February, 28), d)

	_, err = ParseDate("28/02/2026")
	assert.Error(t, err)
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2026, time.January, 31)

	assert.Equal(t, NewDate(2026, time.February, 1), d.AddDays(1))
	assert.Equal(t, NewDate(2027, time.January, 31), d.AddYears(1))
	assert.Equal(t, 365, DaysBetween(d, d.AddYears(1)))
}

func TestDate_Comparisons(t *testing.T) {
	a := NewDate(2026, time.June, 1)
	b := a.AddDays(1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.False(t, b.BeforeOrEqual(a))
}

func TestDate_ZeroStringIsEmpty(t *testing.T) {
	assert.True(t, Date{}.IsZero())
	assert.Equal(t, "", Date{}.String())
}

func TestNewPeriod(t *testing.T) {
	start := NewDate(2026, time.January, 1)

	p, err := NewPeriod(start, start)
	require.NoError(t, err, "single-day period")
	assert.Equal(t, 1, p.Days())

	_, err = NewPeriod(start, start.AddDays(-1))
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = NewPeriod(Date{}, start)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriod_ContainsBothBounds(t *testing.T) {
	p, err := NewPeriod(NewDate(2026, time.January, 1), NewDate(2026, time.December, 31))
	require.NoError(t, err)

	assert.True(t, p.Contains(p.Start))
	assert.True(t, p.Contains(p.End))
	assert.False(t, p.Contains(p.End.AddDays(1)))
	assert.Equal(t, 365, p.Days())
}

func TestRange_Contains(t *testing.T) {
	from := NewDate(2026, time.January, 1)
	to := NewDate(2026, time.March, 31)

	closed := Range{From: from, To: &to}
	assert.False(t, closed.Contains(from.AddDays(-1)))
	assert.True(t, closed.Contains(from))
	assert.True(t, closed.Contains(to))
	assert.False(t, closed.Contains(to.AddDays(1)))

	open := Range{From: from}
	assert.True(t, open.Contains(NewDate(2099, time.January, 1)))
}
