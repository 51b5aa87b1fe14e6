package votes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"albumclub/pkg/models"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ErrInvalidDirection is returned for directions other than up/down.
var ErrInvalidDirection = errors.New("direction must be up or down")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Toggle applies one thumb action for (review, user). The row is
// created lazily on first use. Repeating the active direction retracts
// the vote; voting the other way clears the opposite flag. The flags
// are never both true, backed by the table's CHECK constraint.
func (r *Repo) Toggle(ctx context.Context, reviewID, userID string, dir Direction) (models.VoteState, error) {
	if dir != DirectionUp && dir != DirectionDown {
		return models.VoteState{}, ErrInvalidDirection
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.VoteState{}, fmt.Errorf("begin toggle: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := existsTx(ctx, tx, "reviews", reviewID); err != nil {
		return models.VoteState{}, err
	}
	if err := existsTx(ctx, tx, "users", userID); err != nil {
		return models.VoteState{}, err
	}

	now := time.Now().UTC()

	var (
		id  string
		cur models.VoteState
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, thumbs_up, thumbs_down
		FROM review_thumbs
		WHERE review_id = ? AND user_id = ?
	`, reviewID, userID).Scan(&id, &cur.ThumbsUp, &cur.ThumbsDown)
	if err == sql.ErrNoRows {
		id = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO review_thumbs (id, review_id, user_id, thumbs_up, thumbs_down, created_on, updated_on)
			VALUES (?, ?, ?, 0, 0, ?, ?)
		`, id, reviewID, userID, now, now); err != nil {
			return models.VoteState{}, fmt.Errorf("insert thumb row: %w", err)
		}
		cur = models.VoteState{}
	} else if err != nil {
		return models.VoteState{}, fmt.Errorf("read thumb row: %w", err)
	}

	next := nextState(cur, dir)

	if _, err := tx.ExecContext(ctx, `
		UPDATE review_thumbs
		SET thumbs_up = ?, thumbs_down = ?, updated_on = ?
		WHERE id = ?
	`, next.ThumbsUp, next.ThumbsDown, now, id); err != nil {
		return models.VoteState{}, fmt.Errorf("update thumb row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.VoteState{}, fmt.Errorf("commit toggle: %w", err)
	}
	return next, nil
}

func nextState(cur models.VoteState, dir Direction) models.VoteState {
	switch dir {
	case DirectionUp:
		if cur.ThumbsUp {
			return models.VoteState{}
		}
		return models.VoteState{ThumbsUp: true}
	default:
		if cur.ThumbsDown {
			return models.VoteState{}
		}
		return models.VoteState{ThumbsDown: true}
	}
}

func existsTx(ctx context.Context, tx *sql.Tx, table, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	return nil
}
