package votes

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
)

func seedReview(t *testing.T, db *sql.DB) (reviewID, voterID string) {
	t.Helper()
	now := time.Now().UTC()

	authorID := uuid.NewString()
	voterID = uuid.NewString()
	for _, u := range []struct{ id, email string }{
		{authorID, "author@example.com"},
		{voterID, "voter@example.com"},
	} {
		_, err := db.Exec(`
			INSERT INTO users (id, email, password_hash, created_on, updated_on)
			VALUES (?, ?, 'x', ?, ?)
		`, u.id, u.email, now, now)
		require.NoError(t, err)
	}

	albumID := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO albums (id, title, artist, created_on, updated_on)
		VALUES (?, 'Album', 'Artist', ?, ?)
	`, albumID, now, now)
	require.NoError(t, err)

	reviewID = uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO reviews (id, album_id, user_id, rating, notes, created_on, updated_on)
		VALUES (?, ?, ?, '8.0', NULL, ?, ?)
	`, reviewID, albumID, authorID, now, now)
	require.NoError(t, err)

	return reviewID, voterID
}

func assertNeverBoth(t *testing.T, s models.VoteState) {
	t.Helper()
	assert.False(t, s.ThumbsUp && s.ThumbsDown, "thumbs_up and thumbs_down must never both be true")
}

func TestToggleUpThenUpRetracts(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()
	review, voter := seedReview(t, db)

	s, err := r.Toggle(ctx, review, voter, DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, models.VoteState{ThumbsUp: true}, s)
	assertNeverBoth(t, s)

	s, err = r.Toggle(ctx, review, voter, DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, models.VoteState{}, s)
	assertNeverBoth(t, s)
}

func TestToggleUpThenDownSwitches(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()
	review, voter := seedReview(t, db)

	s, err := r.Toggle(ctx, review, voter, DirectionUp)
	require.NoError(t, err)
	assertNeverBoth(t, s)

	s, err = r.Toggle(ctx, review, voter, DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteState{ThumbsDown: true}, s)
	assertNeverBoth(t, s)
}

func TestToggleDownThenDownRetracts(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()
	review, voter := seedReview(t, db)

	s, err := r.Toggle(ctx, review, voter, DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteState{ThumbsDown: true}, s)

	s, err = r.Toggle(ctx, review, voter, DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, models.VoteState{}, s)
}

func TestToggleCreatesSingleRowLazily(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()
	review, voter := seedReview(t, db)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM review_thumbs`).Scan(&n))
	assert.Equal(t, 0, n)

	for _, d := range []Direction{DirectionUp, DirectionDown, DirectionDown, DirectionUp} {
		_, err := r.Toggle(ctx, review, voter, d)
		require.NoError(t, err)
	}

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM review_thumbs`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestToggleUnknownReviewOrUser(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	ctx := context.Background()
	review, voter := seedReview(t, db)

	_, err := r.Toggle(ctx, uuid.NewString(), voter, DirectionUp)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = r.Toggle(ctx, review, uuid.NewString(), DirectionUp)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestToggleInvalidDirection(t *testing.T) {
	db := database.OpenTest(t)
	r := NewRepo(db)
	review, voter := seedReview(t, db)

	_, err := r.Toggle(context.Background(), review, voter, Direction("sideways"))
	assert.ErrorIs(t, err, ErrInvalidDirection)
}
