package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Review struct {
	ID        string              `json:"id"`
	AlbumID   string              `json:"album_id"`
	UserID    string              `json:"user_id"`
	Rating    decimal.NullDecimal `json:"rating"`
	Notes     string              `json:"notes,omitempty"`
	CreatedOn time.Time           `json:"created_on"`
	UpdatedOn time.Time           `json:"updated_on"`
}
