package stats

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"albumclub/internal/scheduler"
	"albumclub/pkg/models"
	"albumclub/pkg/utils"
)

// Engine aggregates ratings and votes over every selected album except
// the current today's album. Averages stay exact decimals end to end;
// the only float math is the controversy standard deviation, whose
// error is far below the two-place display quantum.
type Engine struct {
	DB    *sql.DB
	Sched *scheduler.Scheduler
	Names *utils.NameLookup
}

func NewEngine(db *sql.DB, sched *scheduler.Scheduler, names *utils.NameLookup) *Engine {
	return &Engine{DB: db, Sched: sched, Names: names}
}

type Report struct {
	GeneratedAt        time.Time     `json:"generated_at"`
	ExcludedAlbumID    string        `json:"excluded_album_id,omitempty"`
	GlobalAverage      string        `json:"global_average"`
	Users              []UserStats   `json:"users"`
	HighestRated       *AlbumRanking `json:"highest_rated,omitempty"`
	LowestRated        *AlbumRanking `json:"lowest_rated,omitempty"`
	MostControversial  *Controversy  `json:"most_controversial,omitempty"`
	LeastControversial *Controversy  `json:"least_controversial,omitempty"`
}

type UserStats struct {
	UserID             string `json:"user_id"`
	DisplayName        string `json:"display_name"`
	ReviewCount        int    `json:"review_count"`
	MinRating          string `json:"min_rating"`
	MaxRating          string `json:"max_rating"`
	AvgRating          string `json:"avg_rating"`
	SubmittedCount     int    `json:"submitted_count"`
	SubmittedAvg       string `json:"submitted_avg"`
	ThumbsUpReceived   int    `json:"thumbs_up_received"`
	ThumbsDownReceived int    `json:"thumbs_down_received"`
}

type AlbumRanking struct {
	AlbumID     string `json:"album_id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Average     string `json:"average"`
	RatingCount int    `json:"rating_count"`
}

// Controversy ranks disagreement: sample standard deviation over albums
// with at least two ratings.
type Controversy struct {
	AlbumID     string `json:"album_id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	StdDev      string `json:"stddev"`
	MaxRating   string `json:"max_rating"`
	MinRating   string `json:"min_rating"`
	RatingCount int    `json:"rating_count"`
}

type albumAgg struct {
	id          string
	title       string
	artist      string
	submittedBy string
	ratings     []decimal.Decimal
}

func (a *albumAgg) average() decimal.NullDecimal {
	if len(a.ratings) == 0 {
		return decimal.NullDecimal{}
	}
	sum := decimal.Zero
	for _, r := range a.ratings {
		sum = sum.Add(r)
	}
	return models.SomeRating(sum.Div(decimal.NewFromInt(int64(len(a.ratings)))))
}

func (e *Engine) Compute(ctx context.Context, asOf time.Time) (*Report, error) {
	report := &Report{GeneratedAt: asOf}

	today, err := e.Sched.Today(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("resolve exclusion: %w", err)
	}
	excludeID := ""
	if today != nil {
		excludeID = today.ID
		report.ExcludedAlbumID = today.ID
	}

	albums, err := e.loadAlbums(ctx, excludeID)
	if err != nil {
		return nil, err
	}
	byAlbum := make(map[string]*albumAgg, len(albums))
	for _, a := range albums {
		byAlbum[a.id] = a
	}

	type userAgg struct {
		email   string
		ratings []decimal.Decimal
		up      int
		down    int
	}
	users := []string{}
	byUser := map[string]*userAgg{}

	rows, err := e.DB.QueryContext(ctx, `SELECT id, email FROM users ORDER BY email, id`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, id)
		byUser[id] = &userAgg{email: email}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows err: %w", err)
	}
	rows.Close()

	// Ratings over eligible albums, attributed to both sides.
	rows, err = e.DB.QueryContext(ctx, `
		SELECT rv.user_id, rv.album_id, rv.rating
		FROM reviews rv
		JOIN albums a ON a.id = rv.album_id
		WHERE rv.rating IS NOT NULL
		  AND a.made_todays_album IS NOT NULL
		  AND a.id != ?
	`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	all := []decimal.Decimal{}
	for rows.Next() {
		var (
			userID  string
			albumID string
			rating  decimal.Decimal
		)
		if err := rows.Scan(&userID, &albumID, &rating); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		all = append(all, rating)
		if a, ok := byAlbum[albumID]; ok {
			a.ratings = append(a.ratings, rating)
		}
		if u, ok := byUser[userID]; ok {
			u.ratings = append(u.ratings, rating)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows err: %w", err)
	}
	rows.Close()

	// Thumbs received per review author, eligible albums only.
	rows, err = e.DB.QueryContext(ctx, `
		SELECT rv.user_id, COALESCE(SUM(t.thumbs_up), 0), COALESCE(SUM(t.thumbs_down), 0)
		FROM review_thumbs t
		JOIN reviews rv ON rv.id = t.review_id
		JOIN albums a ON a.id = rv.album_id
		WHERE a.made_todays_album IS NOT NULL AND a.id != ?
		GROUP BY rv.user_id
	`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("load thumbs: %w", err)
	}
	for rows.Next() {
		var (
			userID   string
			up, down int
		)
		if err := rows.Scan(&userID, &up, &down); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan thumbs: %w", err)
		}
		if u, ok := byUser[userID]; ok {
			u.up = up
			u.down = down
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("rows err: %w", err)
	}
	rows.Close()

	report.GlobalAverage = models.FormatRating(meanOf(all))

	// Album rankings: albums are walked in selection order and strict
	// comparisons keep the first encountered album on ties, so the
	// result is reproducible.
	var (
		highest, lowest *albumAgg
		highAvg, lowAvg decimal.Decimal
	)
	for _, a := range albums {
		avg := a.average()
		if !avg.Valid {
			continue
		}
		if highest == nil || avg.Decimal.GreaterThan(highAvg) {
			highest = a
			highAvg = avg.Decimal
		}
		if lowest == nil || avg.Decimal.LessThan(lowAvg) {
			lowest = a
			lowAvg = avg.Decimal
		}
	}
	if highest != nil {
		report.HighestRated = rankingOf(highest)
		report.LowestRated = rankingOf(lowest)
	}

	// Controversy: sample stdev, two or more ratings required. Albums
	// below the threshold are skipped silently; no qualifying album
	// leaves both entries empty.
	var (
		most, least     *albumAgg
		mostSD, leastSD float64
	)
	for _, a := range albums {
		if len(a.ratings) < 2 {
			continue
		}
		sd := sampleStdDev(a.ratings)
		if most == nil || sd > mostSD {
			most = a
			mostSD = sd
		}
		if least == nil || sd < leastSD {
			least = a
			leastSD = sd
		}
	}
	if most != nil {
		report.MostControversial = controversyOf(most, mostSD)
		report.LeastControversial = controversyOf(least, leastSD)
	}

	// Per-user block, in the users' stable (email) order.
	for _, id := range users {
		u := byUser[id]
		us := UserStats{
			UserID:             id,
			DisplayName:        e.Names.DisplayName(u.email),
			ReviewCount:        len(u.ratings),
			MinRating:          models.FormatRating(minOf(u.ratings)),
			MaxRating:          models.FormatRating(maxOf(u.ratings)),
			AvgRating:          models.FormatRating(meanOf(u.ratings)),
			ThumbsUpReceived:   u.up,
			ThumbsDownReceived: u.down,
		}

		submittedAvgs := []decimal.Decimal{}
		for _, a := range albums {
			if a.submittedBy != id {
				continue
			}
			us.SubmittedCount++
			if avg := a.average(); avg.Valid {
				submittedAvgs = append(submittedAvgs, avg.Decimal)
			}
		}
		us.SubmittedAvg = models.FormatRating(meanOf(submittedAvgs))

		report.Users = append(report.Users, us)
	}

	return report, nil
}

func (e *Engine) loadAlbums(ctx context.Context, excludeID string) ([]*albumAgg, error) {
	rows, err := e.DB.QueryContext(ctx, `
		SELECT id, title, artist, submitted_by
		FROM albums
		WHERE made_todays_album IS NOT NULL AND id != ?
		ORDER BY made_todays_album ASC, id ASC
	`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("load albums: %w", err)
	}
	defer rows.Close()

	out := []*albumAgg{}
	for rows.Next() {
		var (
			a           albumAgg
			submittedBy sql.NullString
		)
		if err := rows.Scan(&a.id, &a.title, &a.artist, &submittedBy); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		a.submittedBy = submittedBy.String
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func rankingOf(a *albumAgg) *AlbumRanking {
	return &AlbumRanking{
		AlbumID:     a.id,
		Title:       a.title,
		Artist:      a.artist,
		Average:     models.FormatRating(a.average()),
		RatingCount: len(a.ratings),
	}
}

func controversyOf(a *albumAgg, sd float64) *Controversy {
	return &Controversy{
		AlbumID:     a.id,
		Title:       a.title,
		Artist:      a.artist,
		StdDev:      decimal.NewFromFloat(sd).StringFixed(2),
		MaxRating:   models.FormatRating(maxOf(a.ratings)),
		MinRating:   models.FormatRating(minOf(a.ratings)),
		RatingCount: len(a.ratings),
	}
}

func meanOf(vals []decimal.Decimal) decimal.NullDecimal {
	if len(vals) == 0 {
		return decimal.NullDecimal{}
	}
	sum := decimal.Zero
	for _, v := range vals {
		sum = sum.Add(v)
	}
	return models.SomeRating(sum.Div(decimal.NewFromInt(int64(len(vals)))))
}

func minOf(vals []decimal.Decimal) decimal.NullDecimal {
	if len(vals) == 0 {
		return decimal.NullDecimal{}
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return models.SomeRating(min)
}

func maxOf(vals []decimal.Decimal) decimal.NullDecimal {
	if len(vals) == 0 {
		return decimal.NullDecimal{}
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v.GreaterThan(max) {
			max = v
		}
	}
	return models.SomeRating(max)
}

func sampleStdDev(vals []decimal.Decimal) float64 {
	n := float64(len(vals))
	mean := 0.0
	for _, v := range vals {
		mean += v.InexactFloat64()
	}
	mean /= n

	variance := 0.0
	for _, v := range vals {
		d := v.InexactFloat64() - mean
		variance += d * d
	}
	variance /= n - 1
	return math.Sqrt(variance)
}
