package albums

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"albumclub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// PastAlbum is a previously selected album plus its average score,
// as shown on the past-albums listing.
type PastAlbum struct {
	models.Album
	AverageScore string `json:"average_score"`
	ReviewCount  int    `json:"review_count"`
}

// Create inserts a new, unselected album. ID is assigned when empty.
func (r *Repo) Create(ctx context.Context, a models.Album) (*models.Album, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedOn = now
	a.UpdatedOn = now

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO albums (id, title, artist, genre, submitted_by, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Title, a.Artist, nullString(a.Genre), nullString(a.SubmittedBy), a.CreatedOn, a.UpdatedOn)
	if err != nil {
		return nil, fmt.Errorf("insert album: %w", err)
	}
	return &a, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Album, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, artist, genre, submitted_by, made_todays_album, created_on, updated_on
		FROM albums
		WHERE id = ?
	`, id)

	var (
		a           models.Album
		genre       sql.NullString
		submittedBy sql.NullString
		selectedOn  sql.NullTime
	)
	if err := row.Scan(
		&a.ID, &a.Title, &a.Artist, &genre, &submittedBy, &selectedOn, &a.CreatedOn, &a.UpdatedOn,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}

	a.Genre = genre.String
	a.SubmittedBy = submittedBy.String
	if selectedOn.Valid {
		t := selectedOn.Time
		a.MadeTodaysAlbum = &t
	}
	return &a, nil
}

// ListPastExcluding returns selected albums newest first, skipping the
// current pick, each with its exact average score over non-null
// ratings.
func (r *Repo) ListPastExcluding(ctx context.Context, excludeID string) ([]PastAlbum, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.id, a.title, a.artist, a.genre, a.submitted_by, a.made_todays_album,
		       a.created_on, a.updated_on, rv.rating
		FROM albums a
		LEFT JOIN reviews rv ON rv.album_id = a.id AND rv.rating IS NOT NULL
		WHERE a.made_todays_album IS NOT NULL AND a.id != ?
		ORDER BY a.made_todays_album DESC, a.id
	`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list past albums: %w", err)
	}
	defer rows.Close()

	var (
		out  []PastAlbum
		cur  *PastAlbum
		sum  decimal.Decimal
		nums int
	)
	flush := func() {
		if cur == nil {
			return
		}
		avg := decimal.NullDecimal{}
		if nums > 0 {
			avg = models.SomeRating(sum.Div(decimal.NewFromInt(int64(nums))))
		}
		cur.AverageScore = models.FormatRating(avg)
		cur.ReviewCount = nums
		out = append(out, *cur)
	}

	for rows.Next() {
		var (
			a           models.Album
			genre       sql.NullString
			submittedBy sql.NullString
			selectedOn  sql.NullTime
			rating      decimal.NullDecimal
		)
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Artist, &genre, &submittedBy, &selectedOn,
			&a.CreatedOn, &a.UpdatedOn, &rating,
		); err != nil {
			return nil, fmt.Errorf("scan past album: %w", err)
		}

		a.Genre = genre.String
		a.SubmittedBy = submittedBy.String
		if selectedOn.Valid {
			t := selectedOn.Time
			a.MadeTodaysAlbum = &t
		}

		if cur == nil || cur.ID != a.ID {
			flush()
			cur = &PastAlbum{Album: a}
			sum = decimal.Zero
			nums = 0
		}
		if rating.Valid {
			sum = sum.Add(rating.Decimal)
			nums++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	flush()

	if out == nil {
		out = []PastAlbum{}
	}
	return out, nil
}

func (r *Repo) CountUnselected(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM albums WHERE made_todays_album IS NULL
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unselected: %w", err)
	}
	return n, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
