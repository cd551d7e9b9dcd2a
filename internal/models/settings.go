package models

import (
	"strings"
	"time"
)

// DefaultAutoSyncIntervalMinutes is applied to teams that never saved settings.
const DefaultAutoSyncIntervalMinutes = 15

// TeamSettings holds per-team integration settings.
type TeamSettings struct {
	UpdatedAt               time.Time `json:"updatedAt"`
	TeamID                  string    `json:"teamId"`
	APIKey                  string    `json:"apiKey"`
	AutoSyncIntervalMinutes int       `json:"autoSyncInterval"`
}

// HasAPIKey reports whether a reservation feed credential is configured.
func (s *TeamSettings) HasAPIKey() bool {
	return s != nil && strings.TrimSpace(s.APIKey) != ""
}

// Redacted returns a copy safe for API responses.
func (s TeamSettings) Redacted() TeamSettings {
	if s.APIKey != "" {
		keep := 4
		if len(s.APIKey) <= keep {
			s.APIKey = strings.Repeat("*", len(s.APIKey))
		} else {
			s.APIKey = strings.Repeat("*", len(s.APIKey)-keep) + s.APIKey[len(s.APIKey)-keep:]
		}
	}
	return s
}
