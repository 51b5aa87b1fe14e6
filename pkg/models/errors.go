package models

import "errors"

// ErrNotFound is returned when a referenced album, user or review does
// not exist. Handlers map it to a 404.
var ErrNotFound = errors.New("not found")
