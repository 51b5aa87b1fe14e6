package models

import "time"

type Vote struct {
	ID         string    `json:"id"`
	ReviewID   string    `json:"review_id"`
	UserID     string    `json:"user_id"`
	ThumbsUp   bool      `json:"thumbs_up"`
	ThumbsDown bool      `json:"thumbs_down"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// VoteState is the two-flag result of a toggle. The flags are never
// both true.
type VoteState struct {
	ThumbsUp   bool `json:"thumbs_up"`
	ThumbsDown bool `json:"thumbs_down"`
}
