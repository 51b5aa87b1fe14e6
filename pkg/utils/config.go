package utils

import (
	"os"
	"strings"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("ALBUMCLUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("ALBUMCLUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "albumclub"
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: 24 * time.Hour,
	}
}

// SelectionConfig controls when the scheduler may promote a new today's
// album. An empty Days set means every day is a selection day.
type SelectionConfig struct {
	Days     map[time.Weekday]bool
	Location *time.Location
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// LoadSelectionConfig reads ALBUMCLUB_SELECTION_DAYS (comma-separated
// weekday names, e.g. "Mon,Thu"; empty or unset = daily) and
// ALBUMCLUB_SELECTION_TZ (IANA zone name, default UTC). Unknown values
// are ignored rather than fatal.
func LoadSelectionConfig() SelectionConfig {
	cfg := SelectionConfig{
		Days:     ParseSelectionDays(os.Getenv("ALBUMCLUB_SELECTION_DAYS")),
		Location: time.UTC,
	}

	if tz := os.Getenv("ALBUMCLUB_SELECTION_TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Location = loc
		}
	}
	return cfg
}

func ParseSelectionDays(raw string) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if len(part) < 3 {
			continue
		}
		if d, ok := weekdayNames[part[:3]]; ok {
			days[d] = true
		}
	}
	return days
}

// IsSelectionDay evaluates the predicate in the configured zone.
func (c SelectionConfig) IsSelectionDay(t time.Time) bool {
	if len(c.Days) == 0 {
		return true
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return c.Days[t.In(loc).Weekday()]
}
