package albums

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albumclub/pkg/database"
	"albumclub/pkg/models"
)

func insertUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	id := email // readable IDs are fine here, the column is just TEXT
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, created_on, updated_on)
		VALUES (?, ?, 'x', ?, ?)
	`, id, email, now, now)
	require.NoError(t, err)
	return id
}

func insertReview(t *testing.T, db *sql.DB, albumID, userID, rating string) {
	t.Helper()
	now := time.Now().UTC()

	var r any
	if rating != "" {
		r = rating
	}
	_, err := db.Exec(`
		INSERT INTO reviews (id, album_id, user_id, rating, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?)
	`, albumID+"/"+userID, albumID, userID, r, now, now)
	require.NoError(t, err)
}

func selectAlbumAt(t *testing.T, db *sql.DB, id string, at time.Time) {
	t.Helper()
	_, err := db.Exec(`UPDATE albums SET made_todays_album = ? WHERE id = ?`, at, id)
	require.NoError(t, err)
}

func TestCreateAndGetByID(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()

	created, err := r.Create(ctx, models.Album{Title: "In Rainbows", Artist: "Radiohead", Genre: "Rock"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.Selected())

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "In Rainbows", got.Title)
	assert.Equal(t, "Rock", got.Genre)
	assert.Nil(t, got.MadeTodaysAlbum)

	missing, err := r.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListPastExcluding(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()

	u1 := insertUser(t, db, "a@example.com")
	u2 := insertUser(t, db, "b@example.com")

	mk := func(title string) string {
		a, err := r.Create(ctx, models.Album{Title: title, Artist: "Artist"})
		require.NoError(t, err)
		return a.ID
	}

	now := time.Now().UTC()
	older := mk("Older")
	newer := mk("Newer")
	current := mk("Current")
	unselected := mk("Unselected")
	selectAlbumAt(t, db, older, now.Add(-48*time.Hour))
	selectAlbumAt(t, db, newer, now.Add(-24*time.Hour))
	selectAlbumAt(t, db, current, now)

	insertReview(t, db, older, u1, "8.0")
	insertReview(t, db, older, u2, "7.0")
	insertReview(t, db, newer, u1, "") // notes-only, no score
	insertReview(t, db, unselected, u1, "9.0")

	items, err := r.ListPastExcluding(ctx, current)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first; the current pick and unselected albums are absent.
	assert.Equal(t, newer, items[0].ID)
	assert.Equal(t, models.Unrated, items[0].AverageScore)
	assert.Equal(t, 0, items[0].ReviewCount)

	assert.Equal(t, older, items[1].ID)
	assert.Equal(t, "7.50", items[1].AverageScore)
	assert.Equal(t, 2, items[1].ReviewCount)

	n, err := r.CountUnselected(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListPastExcludingEmpty(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)

	items, err := r.ListPastExcluding(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
