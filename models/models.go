// models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Fields are declared in JSON key order so the encoded bundle has sorted keys.

// Settings holds the feedback toggles.
type Settings struct {
	SoundEnabled     bool `json:"soundEnabled"`
	VibrationEnabled bool `json:"vibrationEnabled"`
}

// DefaultSettings has both feedback channels on.
func DefaultSettings() Settings {
	return Settings{SoundEnabled: true, VibrationEnabled: true}
}

// Statistics are lifetime counters. They only grow until explicitly reset.
type Statistics struct {
	LastUpdated          time.Time `json:"lastUpdated"`
	TotalPlayersTracked  int       `json:"totalPlayersTracked"`
	TotalPointsAwarded   float64   `json:"totalPointsAwarded"`
	TotalScoreEvents     int       `json:"totalScoreEvents"`
	TotalSessionsCreated int       `json:"totalSessionsCreated"`
}

// NewStatistics returns zeroed counters stamped with now.
func NewStatistics(now time.Time) Statistics {
	return Statistics{LastUpdated: now}
}

// AveragePointsPerSession is cumulative points over sessions created.
func (s Statistics) AveragePointsPerSession() float64 {
	if s.TotalSessionsCreated <= 0 {
		return 0
	}
	return s.TotalPointsAwarded / float64(s.TotalSessionsCreated)
}

// PlayerSnapshot is the persisted form of a player.
type PlayerSnapshot struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Scores []float64 `json:"scores"`
}

// SessionSnapshot is the persisted form of a session. The preset is stored
// by id only.
type SessionSnapshot struct {
	CurrentRoundIndex int              `json:"currentRoundIndex"`
	ID                uuid.UUID        `json:"id"`
	Players           []PlayerSnapshot `json:"players"`
	PresetID          string           `json:"presetID"`
}

// Bundle is the unit of persistence.
type Bundle struct {
	Sessions   []SessionSnapshot `json:"sessions"`
	Settings   Settings          `json:"settings"`
	Statistics Statistics        `json:"statistics"`
}

// DefaultBundle is what a fresh install starts from.
func DefaultBundle(now time.Time) Bundle {
	return Bundle{
		Sessions:   []SessionSnapshot{},
		Settings:   DefaultSettings(),
		Statistics: NewStatistics(now),
	}
}
