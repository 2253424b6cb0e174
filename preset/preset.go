// Package preset holds the immutable game templates a session is built from.
package preset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRoundCount = errors.New("preset: round count must be at least 1")
	ErrInvalidMinPlayers = errors.New("preset: minimum players must be at least 1")
	ErrInvalidMaxPlayers = errors.New("preset: maximum players below minimum")
	ErrNoOptions         = errors.New("preset: no scoring options")
)

// ScoreOption is one scoring button. Undo is an option with a negative delta.
type ScoreOption struct {
	Label string  `json:"label"`
	Delta float64 `json:"delta"`
	Icon  string  `json:"icon"`
	Color string  `json:"color"`
}

// Preset defines the round structure and scoring actions of a game.
type Preset struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Icon               string        `json:"icon"`
	Description        string        `json:"description"`
	RoundCount         int           `json:"round_count"`
	RoundLabel         string        `json:"round_label"`
	Options            []ScoreOption `json:"options"`
	MinPlayers         int           `json:"min_players"`
	MaxPlayers         int           `json:"max_players,omitempty"` // 0 means unbounded
	DefaultPlayerNames []string      `json:"default_player_names"`
	Notes              string        `json:"notes"`
	ScoreFloor         float64       `json:"score_floor"`
	TargetPerRound     float64       `json:"target_per_round,omitempty"` // 0 means no target
	ScoringHint        string        `json:"scoring_hint,omitempty"`
}

// Validate checks the catalog invariants.
func (p Preset) Validate() error {
	if p.RoundCount < 1 {
		return fmt.Errorf("%s: %w", p.ID, ErrInvalidRoundCount)
	}
	if p.MinPlayers < 1 {
		return fmt.Errorf("%s: %w", p.ID, ErrInvalidMinPlayers)
	}
	if p.MaxPlayers != 0 && p.MaxPlayers < p.MinPlayers {
		return fmt.Errorf("%s: %w", p.ID, ErrInvalidMaxPlayers)
	}
	if len(p.Options) == 0 {
		return fmt.Errorf("%s: %w", p.ID, ErrNoOptions)
	}
	return nil
}

// Rounds is RoundCount, never less than one.
func (p Preset) Rounds() int {
	if p.RoundCount < 1 {
		return 1
	}
	return p.RoundCount
}

func (p Preset) HasMaxPlayers() bool {
	return p.MaxPlayers > 0
}

func (p Preset) HasTarget() bool {
	return p.TargetPerRound > 0
}

// SuggestedName returns the default name for the player at index, falling
// back to "Player N".
func (p Preset) SuggestedName(index int) string {
	if index >= 0 && index < len(p.DefaultPlayerNames) {
		if candidate := p.DefaultPlayerNames[index]; candidate != "" {
			return candidate
		}
	}
	return fmt.Sprintf("Player %d", index+1)
}

// CanAddPlayer reports whether a roster of size n may grow.
func (p Preset) CanAddPlayer(n int) bool {
	if !p.HasMaxPlayers() {
		return true
	}
	return n < p.MaxPlayers
}

// CanRemovePlayer reports whether a roster of size n may shrink.
func (p Preset) CanRemovePlayer(n int) bool {
	return n > p.MinPlayers
}

// DefaultDraft returns the roster names a new session form starts with:
// the default names, padded up to MinPlayers and cut down to MaxPlayers.
func (p Preset) DefaultDraft() []string {
	names := make([]string, 0, len(p.DefaultPlayerNames))
	for i, name := range p.DefaultPlayerNames {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		names = append(names, name)
	}
	return p.SyncDraft(names)
}

// SyncDraft pads or truncates a draft roster to the preset bounds.
func (p Preset) SyncDraft(names []string) []string {
	out := append([]string(nil), names...)
	for len(out) < p.MinPlayers {
		out = append(out, p.SuggestedName(len(out)))
	}
	if p.HasMaxPlayers() && len(out) > p.MaxPlayers {
		out = out[:p.MaxPlayers]
	}
	return out
}

// Option returns the scoring option at index.
func (p Preset) Option(index int) (ScoreOption, bool) {
	if index < 0 || index >= len(p.Options) {
		return ScoreOption{}, false
	}
	return p.Options[index], true
}

// Catalog is an ordered list of presets. Order matters: it is the display
// order and the tie-break order for popularity.
type Catalog []Preset

// Lookup finds a preset by id.
func (c Catalog) Lookup(id string) (Preset, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Index returns the catalog position of id, or -1.
func (c Catalog) Index(id string) int {
	for i, p := range c {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// First returns the first preset, or the placeholder for an empty catalog.
func (c Catalog) First() Preset {
	if len(c) == 0 {
		return Placeholder()
	}
	return c[0]
}

// Validate checks every preset and rejects duplicate ids.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, p := range c {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("preset: duplicate id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
