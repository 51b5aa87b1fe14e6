package models

import "time"

type Album struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Artist          string     `json:"artist"`
	Genre           string     `json:"genre,omitempty"`
	SubmittedBy     string     `json:"submitted_by,omitempty"`
	MadeTodaysAlbum *time.Time `json:"made_todays_album,omitempty"`
	CreatedOn       time.Time  `json:"created_on"`
	UpdatedOn       time.Time  `json:"updated_on"`
}

// Selected reports whether the album has already been promoted to
// today's album. Once set, the timestamp is never cleared.
func (a *Album) Selected() bool {
	return a.MadeTodaysAlbum != nil
}
