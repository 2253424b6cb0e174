package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/preset"
)

// PlayerView is the wire form of a roster entry.
type PlayerView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Scores    []float64 `json:"scores"`
	Total     float64   `json:"total"`
	TotalText string    `json:"total_text"`
	// TargetReached flags each round score at or above the preset target.
	TargetReached []bool `json:"target_reached,omitempty"`
}

// View is the wire form of a session with every derived summary filled in.
type View struct {
	ID             uuid.UUID    `json:"id"`
	PresetID       string       `json:"preset_id"`
	PresetName     string       `json:"preset_name"`
	RoundLabel     string       `json:"round_label"`
	CurrentRound   int          `json:"current_round"`
	TotalRounds    int          `json:"total_rounds"`
	RoundHeadline  string       `json:"round_headline"`
	RoundDetail    string       `json:"round_detail"`
	RoundBadge     string       `json:"round_badge"`
	Progress       float64      `json:"progress"`
	Players        []PlayerView `json:"players"`
	Standings      []uuid.UUID  `json:"standings"`
	LeaderSummary  string       `json:"leader_summary"`
	PlayerSummary  string       `json:"player_summary"`
	CanAdvance     bool         `json:"can_advance"`
	CanRewind      bool         `json:"can_rewind"`
	CanAddPlayer   bool         `json:"can_add_player"`
	CanRemove      bool         `json:"can_remove_player"`
	Pristine       bool         `json:"pristine"`
	TargetPerRound float64      `json:"target_per_round,omitempty"`
	TargetHint     string       `json:"target_hint,omitempty"`
}

func newPlayerView(p Player, pr preset.Preset) PlayerView {
	total := p.Total()
	v := PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Scores:    p.RoundScores,
		Total:     total,
		TotalText: FormatScore(total),
	}
	if pr.HasTarget() {
		v.TargetReached = make([]bool, len(p.RoundScores))
		for i, score := range p.RoundScores {
			v.TargetReached[i] = score >= pr.TargetPerRound
		}
	}
	return v
}

// TargetHint describes the per-round target, or "" when the preset has none.
func (s *Session) TargetHint() string {
	if !s.Preset.HasTarget() {
		return ""
	}
	return fmt.Sprintf("Target: first to %s each %s.",
		FormatScore(s.Preset.TargetPerRound), strings.ToLower(s.Preset.RoundLabel))
}

// View projects the session for clients.
func (s *Session) View() View {
	players := s.Players()
	views := make([]PlayerView, len(players))
	for i, p := range players {
		views[i] = newPlayerView(p, s.Preset)
	}
	standings := s.Standings()
	order := make([]uuid.UUID, len(standings))
	for i, p := range standings {
		order[i] = p.ID
	}
	v := View{
		ID:             s.ID,
		PresetID:       s.Preset.ID,
		PresetName:     s.Preset.Name,
		RoundLabel:     s.Preset.RoundLabel,
		CurrentRound:   s.currentRound,
		TotalRounds:    s.TotalRounds(),
		RoundHeadline:  s.RoundStatusHeadline(),
		RoundDetail:    s.RoundStatusDetail(),
		RoundBadge:     s.RoundStatusBadge(),
		Progress:       s.Progress(),
		Players:        views,
		Standings:      order,
		LeaderSummary:  s.LeaderSummary(),
		PlayerSummary:  s.PlayerSummary(),
		CanAdvance:     s.CanAdvanceRound(),
		CanRewind:      s.CanRewindRound(),
		CanAddPlayer:   s.CanAddPlayer(),
		CanRemove:      s.CanRemovePlayer(),
		Pristine:       s.IsPristine(),
		TargetHint:     s.TargetHint(),
	}
	if s.Preset.HasTarget() {
		v.TargetPerRound = s.Preset.TargetPerRound
	}
	return v
}
