package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"albumclub/pkg/models"
)

// ErrInvalidRating is returned for ratings outside [0.0, 10.0].
// Rejected before anything is persisted.
var ErrInvalidRating = errors.New("rating must be between 0.0 and 10.0")

var (
	minRating = decimal.New(0, 0)    // 0.0
	maxRating = decimal.New(100, -1) // 10.0
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert records a member's review of an album: one row per
// (album, user), updated in place on repeat submissions so the row id
// and creation time survive edits. A null rating is allowed (notes-only
// review); a present rating is quantized to one decimal place.
func (r *Repo) Upsert(ctx context.Context, albumID, userID string, rating decimal.NullDecimal, notes string) (*models.Review, error) {
	if rating.Valid {
		if rating.Decimal.LessThan(minRating) || rating.Decimal.GreaterThan(maxRating) {
			return nil, ErrInvalidRating
		}
		rating.Decimal = rating.Decimal.Round(1)
	}

	if err := r.ensureExists(ctx, "albums", albumID); err != nil {
		return nil, err
	}
	if err := r.ensureExists(ctx, "users", userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (id, album_id, user_id, rating, notes, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(album_id, user_id) DO UPDATE SET
		  rating = excluded.rating,
		  notes = excluded.notes,
		  updated_on = excluded.updated_on
	`, uuid.NewString(), albumID, userID, rating, nullString(notes), now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	return r.GetByAlbumUser(ctx, albumID, userID)
}

func (r *Repo) ensureExists(ctx context.Context, table, id string) error {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, selectReview+` WHERE id = ?`, id)
	return scanReview(row)
}

func (r *Repo) GetByAlbumUser(ctx context.Context, albumID, userID string) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, selectReview+` WHERE album_id = ? AND user_id = ?`, albumID, userID)
	return scanReview(row)
}

// ComputeAverage is the exact mean of the album's non-null ratings,
// optionally excluding one user's rating. Invalid (unrated) when no
// rating contributes. The result is unrounded; display formatting is
// the caller's job.
func (r *Repo) ComputeAverage(ctx context.Context, albumID, excludeUserID string) (decimal.NullDecimal, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT rating FROM reviews
		WHERE album_id = ? AND rating IS NOT NULL AND user_id != ?
	`, albumID, excludeUserID)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("average query: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	count := 0
	for rows.Next() {
		var rating decimal.Decimal
		if err := rows.Scan(&rating); err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("average scan: %w", err)
		}
		sum = sum.Add(rating)
		count++
	}
	if err := rows.Err(); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("rows err: %w", err)
	}

	if count == 0 {
		return decimal.NullDecimal{}, nil
	}
	return models.SomeRating(sum.Div(decimal.NewFromInt(int64(count)))), nil
}

// AlbumReview is a review row joined with its author's email and the
// thumb tallies it has received.
type AlbumReview struct {
	models.Review
	UserEmail  string `json:"-"`
	ThumbsUp   int    `json:"thumbs_up"`
	ThumbsDown int    `json:"thumbs_down"`
}

func (r *Repo) ListByAlbum(ctx context.Context, albumID string) ([]AlbumReview, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT rv.id, rv.album_id, rv.user_id, rv.rating, rv.notes, rv.created_on, rv.updated_on,
		       u.email,
		       COALESCE(SUM(t.thumbs_up), 0), COALESCE(SUM(t.thumbs_down), 0)
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		LEFT JOIN review_thumbs t ON t.review_id = rv.id
		WHERE rv.album_id = ?
		GROUP BY rv.id
		ORDER BY rv.created_on, rv.id
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []AlbumReview{}
	for rows.Next() {
		var (
			ar    AlbumReview
			notes sql.NullString
		)
		if err := rows.Scan(
			&ar.ID, &ar.AlbumID, &ar.UserID, &ar.Rating, &notes, &ar.CreatedOn, &ar.UpdatedOn,
			&ar.UserEmail, &ar.ThumbsUp, &ar.ThumbsDown,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		ar.Notes = notes.String
		out = append(out, ar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

const selectReview = `
	SELECT id, album_id, user_id, rating, notes, created_on, updated_on
	FROM reviews
`

func scanReview(row *sql.Row) (*models.Review, error) {
	var (
		rv    models.Review
		notes sql.NullString
	)
	if err := row.Scan(&rv.ID, &rv.AlbumID, &rv.UserID, &rv.Rating, &notes, &rv.CreatedOn, &rv.UpdatedOn); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	rv.Notes = notes.String
	return &rv, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
