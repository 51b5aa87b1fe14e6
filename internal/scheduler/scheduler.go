package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"albumclub/pkg/models"
	"albumclub/pkg/utils"
)

// DefaultWindow is how long a promoted album holds today's-album status.
const DefaultWindow = 24 * time.Hour

const promoteRetries = 3

// ErrPoolExhausted means every album has already been selected at least
// once. Terminal: the caller should not retry.
var ErrPoolExhausted = errors.New("album pool exhausted")

// errRaceLost means a concurrent caller promoted a different album
// between our eligibility read and our write. Recoverable: re-read the
// now-resolved selection. Never surfaced to callers.
var errRaceLost = errors.New("promotion race lost")

type Scheduler struct {
	DB     *sql.DB
	Cfg    utils.SelectionConfig
	Window time.Duration
}

func New(db *sql.DB, cfg utils.SelectionConfig) *Scheduler {
	return &Scheduler{DB: db, Cfg: cfg, Window: DefaultWindow}
}

func (s *Scheduler) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultWindow
}

// Resolve returns today's album, promoting a fresh pick when the window
// is uncovered and now is a selection day. Repeat calls inside one
// window return the same album and write nothing.
//
// The random pick is a fresh draw per call; idempotence comes from the
// persisted timestamp, not from seeding.
func (s *Scheduler) Resolve(ctx context.Context, now time.Time) (*models.Album, error) {
	for attempt := 0; attempt < promoteRetries; attempt++ {
		a, err := s.Current(ctx, now)
		if err != nil {
			return nil, err
		}
		if a != nil {
			return a, nil
		}

		if !s.Cfg.IsSelectionDay(now) {
			// Between selection days the previous pick stays up.
			latest, err := s.latest(ctx)
			if err != nil {
				return nil, err
			}
			if latest == nil {
				return nil, models.ErrNotFound
			}
			return latest, nil
		}

		a, err = s.promote(ctx, now)
		if errors.Is(err, errRaceLost) {
			continue
		}
		return a, err
	}

	// Retries exhausted: someone else won every race, so a selection
	// must now exist.
	a, err := s.Current(ctx, now)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("resolve todays album: lost promotion race")
	}
	return a, nil
}

// Current returns the active selection (greatest timestamp inside the
// trailing window) without side effects, or nil when the window is
// uncovered.
func (s *Scheduler) Current(ctx context.Context, now time.Time) (*models.Album, error) {
	row := s.DB.QueryRowContext(ctx, selectAlbum+`
		WHERE made_todays_album IS NOT NULL AND made_todays_album > ?
		ORDER BY made_todays_album DESC
		LIMIT 1
	`, now.Add(-s.window()))

	a, err := scanAlbum(row)
	if err != nil {
		return nil, fmt.Errorf("current selection: %w", err)
	}
	return a, nil
}

// Today is the read path used by listings and statistics: the active
// selection, falling back to the most recent pick ever. Nil when no
// album was ever selected.
func (s *Scheduler) Today(ctx context.Context, now time.Time) (*models.Album, error) {
	a, err := s.Current(ctx, now)
	if err != nil || a != nil {
		return a, err
	}
	return s.latest(ctx)
}

func (s *Scheduler) latest(ctx context.Context) (*models.Album, error) {
	row := s.DB.QueryRowContext(ctx, selectAlbum+`
		WHERE made_todays_album IS NOT NULL
		ORDER BY made_todays_album DESC
		LIMIT 1
	`)

	a, err := scanAlbum(row)
	if err != nil {
		return nil, fmt.Errorf("latest selection: %w", err)
	}
	return a, nil
}

// promote picks one unselected album uniformly at random and stamps it,
// all inside one transaction. The guarded UPDATE only lands while the
// row is still unselected and no other album was selected inside the
// window, so two racing callers cannot both promote.
func (s *Scheduler) promote(ctx context.Context, now time.Time) (*models.Album, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin promote: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM albums
		WHERE made_todays_album IS NULL
		ORDER BY RANDOM()
		LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrPoolExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("pick candidate: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE albums
		SET made_todays_album = ?, updated_on = ?
		WHERE id = ?
		  AND made_todays_album IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM albums
			WHERE made_todays_album IS NOT NULL AND made_todays_album > ?
		  )
	`, now, now, id, now.Add(-s.window()))
	if err != nil {
		return nil, fmt.Errorf("stamp selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("stamp selection rows: %w", err)
	}
	if affected == 0 {
		return nil, errRaceLost
	}

	row := tx.QueryRowContext(ctx, selectAlbum+` WHERE id = ?`, id)
	a, err := scanAlbum(row)
	if err != nil {
		return nil, fmt.Errorf("read promoted album: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit promote: %w", err)
	}
	return a, nil
}

const selectAlbum = `
	SELECT id, title, artist, genre, submitted_by, made_todays_album, created_on, updated_on
	FROM albums
`

func scanAlbum(row *sql.Row) (*models.Album, error) {
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
		return nil, err
	}

	a.Genre = genre.String
	a.SubmittedBy = submittedBy.String
	if selectedOn.Valid {
		t := selectedOn.Time
		a.MadeTodaysAlbum = &t
	}
	return &a, nil
}
