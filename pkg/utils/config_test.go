package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSelectionDays(t *testing.T) {
	days := ParseSelectionDays("Mon,Thu")
	assert.Equal(t, map[time.Weekday]bool{
		time.Monday:   true,
		time.Thursday: true,
	}, days)

	// Full names, odd casing and spacing all resolve by prefix.
	days = ParseSelectionDays(" monday , SATURDAY ")
	assert.True(t, days[time.Monday])
	assert.True(t, days[time.Saturday])
	assert.Len(t, days, 2)

	// Unknown tokens are dropped, not fatal.
	days = ParseSelectionDays("Mon,Noday,xx")
	assert.Equal(t, map[time.Weekday]bool{time.Monday: true}, days)

	assert.Empty(t, ParseSelectionDays(""))
}

func TestIsSelectionDayEmptyMeansDaily(t *testing.T) {
	cfg := SelectionConfig{Location: time.UTC}
	for d := 0; d < 7; d++ {
		at := time.Date(2024, 7, 1+d, 12, 0, 0, 0, time.UTC)
		assert.True(t, cfg.IsSelectionDay(at))
	}
}

func TestIsSelectionDayRespectsZone(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	cfg := SelectionConfig{
		Days:     map[time.Weekday]bool{time.Monday: true},
		Location: chicago,
	}

	// 02:00 UTC Tuesday is still Monday evening in Chicago.
	lateMonday := time.Date(2024, 7, 2, 2, 0, 0, 0, time.UTC)
	assert.True(t, cfg.IsSelectionDay(lateMonday))

	cfg.Location = time.UTC
	assert.False(t, cfg.IsSelectionDay(lateMonday))
}

func TestNameLookup(t *testing.T) {
	l := NewNameLookup(map[string]string{"a@example.com": "Lukus"})

	assert.Equal(t, "Lukus", l.DisplayName("a@example.com"))
	// Unknown members keep their raw email.
	assert.Equal(t, "b@example.com", l.DisplayName("b@example.com"))

	email, ok := l.EmailFor("Lukus")
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", email)

	_, ok = l.EmailFor("Nobody")
	assert.False(t, ok)
}
