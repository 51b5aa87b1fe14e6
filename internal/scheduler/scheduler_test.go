package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albumclub/pkg/database"
	"albumclub/pkg/models"
	"albumclub/pkg/utils"
)

func daily() utils.SelectionConfig {
	return utils.SelectionConfig{Location: time.UTC}
}

func onlyMonday() utils.SelectionConfig {
	return utils.SelectionConfig{
		Days:     map[time.Weekday]bool{time.Monday: true},
		Location: time.UTC,
	}
}

func insertAlbum(t *testing.T, db *sql.DB, title string, selectedAt *time.Time) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()

	var sel any
	if selectedAt != nil {
		sel = *selectedAt
	}
	_, err := db.Exec(`
		INSERT INTO albums (id, title, artist, made_todays_album, created_on, updated_on)
		VALUES (?, ?, 'Artist', ?, ?, ?)
	`, id, title, sel, now, now)
	require.NoError(t, err)
	return id
}

func countSelected(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM albums WHERE made_todays_album IS NOT NULL`).Scan(&n))
	return n
}

// A Monday, so the daily and Mon/Thu configs both allow selection.
var monday = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func TestResolvePromotesOnceAndIsIdempotent(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, daily())

	for _, title := range []string{"A", "B", "C"} {
		insertAlbum(t, db, title, nil)
	}

	first, err := s.Resolve(context.Background(), monday)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.MadeTodaysAlbum)
	assert.True(t, first.MadeTodaysAlbum.Equal(monday))

	// Repeat calls inside the window: same album, no further writes.
	for i := 0; i < 5; i++ {
		again, err := s.Resolve(context.Background(), monday.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.True(t, again.MadeTodaysAlbum.Equal(monday))
	}
	assert.Equal(t, 1, countSelected(t, db))
}

func TestResolvePoolExhausted(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, daily())

	old := monday.Add(-48 * time.Hour)
	insertAlbum(t, db, "A", &old)

	_, err := s.Resolve(context.Background(), monday)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestResolvePoolExhaustedEmptyPool(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, daily())

	_, err := s.Resolve(context.Background(), monday)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestResolveOffDayKeepsPreviousPick(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, onlyMonday())

	old := monday.Add(-72 * time.Hour)
	kept := insertAlbum(t, db, "Kept", &old)
	insertAlbum(t, db, "Fresh", nil)

	tuesday := monday.Add(24 * time.Hour)
	a, err := s.Resolve(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, kept, a.ID)

	// The unselected album must not have been promoted.
	assert.Equal(t, 1, countSelected(t, db))
}

func TestResolveOffDayNothingEverSelected(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, onlyMonday())

	insertAlbum(t, db, "Fresh", nil)

	tuesday := monday.Add(24 * time.Hour)
	_, err := s.Resolve(context.Background(), tuesday)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolvePromotesAfterWindowExpiry(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, daily())

	stale := monday.Add(-25 * time.Hour)
	insertAlbum(t, db, "Stale", &stale)
	fresh := insertAlbum(t, db, "Fresh", nil)

	a, err := s.Resolve(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, fresh, a.ID)
	assert.Equal(t, 2, countSelected(t, db))
}

func TestCurrentTieBreaksOnGreatestTimestamp(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, daily())

	earlier := monday.Add(-2 * time.Hour)
	later := monday.Add(-1 * time.Hour)
	insertAlbum(t, db, "Earlier", &earlier)
	winner := insertAlbum(t, db, "Later", &later)

	a, err := s.Current(context.Background(), monday)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, winner, a.ID)

	// Resolve must not promote while a selection is active.
	r, err := s.Resolve(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, winner, r.ID)
}

func TestTodayFallsBackToLatestSelection(t *testing.T) {
	db := database.OpenTest(t)
	s := New(db, daily())

	old := monday.Add(-10 * 24 * time.Hour)
	older := monday.Add(-20 * 24 * time.Hour)
	latest := insertAlbum(t, db, "Latest", &old)
	insertAlbum(t, db, "Oldest", &older)

	a, err := s.Today(context.Background(), monday)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, latest, a.ID)
}
