package utils

import (
	"encoding/json"
	"os"
)

// NameLookup is the static email→display-name table. It is loaded once
// at startup and never mutated; members missing from the table fall
// back to their raw email.
type NameLookup struct {
	byEmail map[string]string
	byName  map[string]string
}

// LoadNameLookup reads the JSON object {"email": "Name", ...} at
// ALBUMCLUB_NAMES_FILE. A missing or unreadable file yields an empty
// lookup, which is valid: every display name falls back to the email.
func LoadNameLookup() *NameLookup {
	path := os.Getenv("ALBUMCLUB_NAMES_FILE")
	if path == "" {
		return NewNameLookup(nil)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return NewNameLookup(nil)
	}

	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return NewNameLookup(nil)
	}
	return NewNameLookup(m)
}

func NewNameLookup(byEmail map[string]string) *NameLookup {
	l := &NameLookup{
		byEmail: make(map[string]string, len(byEmail)),
		byName:  make(map[string]string, len(byEmail)),
	}
	for email, name := range byEmail {
		l.byEmail[email] = name
		l.byName[name] = email
	}
	return l
}

func (l *NameLookup) DisplayName(email string) string {
	if name, ok := l.byEmail[email]; ok {
		return name
	}
	return email
}

// EmailFor reverses the lookup; used by the CSV importer to resolve the
// "Submitted By" column.
func (l *NameLookup) EmailFor(name string) (string, bool) {
	email, ok := l.byName[name]
	return email, ok
}
