// Package game implements a scoring session: a preset, a roster and a round
// cursor. A Session is not safe for concurrent use; its owner serializes
// access.
package game

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/preset"
)

// tolerance for treating two scores as equal.
const epsilon = 1e-4

type Session struct {
	ID           uuid.UUID
	Preset       preset.Preset
	players      []*Player
	currentRound int
}

// New creates a session at round one. The roster is normalized to the
// preset's round count.
func New(p preset.Preset, players []*Player) *Session {
	return Restore(uuid.New(), p, players, 0)
}

// Restore rebuilds a session with a known id and cursor. The cursor is
// clamped into range.
func Restore(id uuid.UUID, p preset.Preset, players []*Player, currentRound int) *Session {
	s := &Session{
		ID:      id,
		Preset:  p,
		players: append([]*Player(nil), players...),
	}
	s.currentRound = min(max(currentRound, 0), s.TotalRounds()-1)
	s.normalize()
	return s
}

// TotalRounds is the preset round count, at least one.
func (s *Session) TotalRounds() int {
	return s.Preset.Rounds()
}

// CurrentRoundIndex is zero based.
func (s *Session) CurrentRoundIndex() int {
	return s.currentRound
}

// CurrentRoundNumber is one based.
func (s *Session) CurrentRoundNumber() int {
	return min(s.currentRound, s.TotalRounds()-1) + 1
}

// Progress is the current round number over the total, in (0, 1].
func (s *Session) Progress() float64 {
	return float64(s.CurrentRoundNumber()) / float64(s.TotalRounds())
}

func (s *Session) CanAdvanceRound() bool {
	return s.currentRound < s.TotalRounds()-1
}

func (s *Session) CanRewindRound() bool {
	return s.currentRound > 0
}

func (s *Session) CanAddPlayer() bool {
	return s.Preset.CanAddPlayer(len(s.players))
}

func (s *Session) CanRemovePlayer() bool {
	return s.Preset.CanRemovePlayer(len(s.players))
}

// IsPristine reports whether nobody has scored yet.
func (s *Session) IsPristine() bool {
	for _, p := range s.players {
		if p.Total() != 0 {
			return false
		}
	}
	return true
}

// --- commands ---

// NextRound advances the cursor. It saturates at the last round.
func (s *Session) NextRound() bool {
	if !s.CanAdvanceRound() {
		return false
	}
	s.currentRound++
	return true
}

// PreviousRound moves the cursor back. It saturates at round zero.
func (s *Session) PreviousRound() bool {
	if !s.CanRewindRound() {
		return false
	}
	s.currentRound--
	return true
}

// Apply adds option.Delta to the player's score for the current round and
// clamps the result at the preset floor. An undo that hits the floor loses
// the overshoot. Returns false only when the player is not in the roster.
func (s *Session) Apply(option preset.ScoreOption, playerID uuid.UUID) bool {
	p := s.find(playerID)
	if p == nil {
		return false
	}
	round := min(s.currentRound, s.TotalRounds()-1)
	p.RoundScores[round] = math.Max(s.Preset.ScoreFloor, p.RoundScores[round]+option.Delta)
	return true
}

// ResetScores zeroes every score and rewinds to round zero. The roster is kept.
func (s *Session) ResetScores() bool {
	changed := s.currentRound != 0 || !s.allZero()
	s.currentRound = 0
	for _, p := range s.players {
		p.Reset(s.TotalRounds())
	}
	return changed
}

// AddPlayer appends a player named after the preset's suggestion. It is
// refused once the roster reaches the preset maximum.
func (s *Session) AddPlayer() (Player, bool) {
	if !s.CanAddPlayer() {
		return Player{}, false
	}
	p := NewPlayer(s.Preset.SuggestedName(len(s.players)), s.TotalRounds())
	s.players = append(s.players, p)
	s.normalize()
	return *p.clone(), true
}

// RemovePlayer drops a player unless that would leave fewer than the
// preset minimum.
func (s *Session) RemovePlayer(id uuid.UUID) bool {
	if !s.CanRemovePlayer() {
		return false
	}
	for i, p := range s.players {
		if p.ID == id {
			s.players = append(s.players[:i], s.players[i+1:]...)
			s.normalize()
			return true
		}
	}
	return false
}

// RenamePlayer changes a display name.
func (s *Session) RenamePlayer(id uuid.UUID, name string) bool {
	p := s.find(id)
	if p == nil || p.Name == name {
		return false
	}
	p.Name = name
	return true
}

// normalize resizes every score vector to exactly TotalRounds entries.
func (s *Session) normalize() {
	rounds := s.TotalRounds()
	for _, p := range s.players {
		if len(p.RoundScores) != rounds {
			p.RoundScores = resize(p.RoundScores, rounds)
		}
	}
}

func (s *Session) find(id uuid.UUID) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) allZero() bool {
	for _, p := range s.players {
		for _, v := range p.RoundScores {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

// --- read views ---

// Players returns copies of the roster in order.
func (s *Session) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p.clone())
	}
	return out
}

// Player returns a copy of one roster entry.
func (s *Session) Player(id uuid.UUID) (Player, bool) {
	p := s.find(id)
	if p == nil {
		return Player{}, false
	}
	return *p.clone(), true
}

func (s *Session) PlayerCount() int {
	return len(s.players)
}

// TotalPoints sums every player's total.
func (s *Session) TotalPoints() float64 {
	total := 0.0
	for _, p := range s.players {
		total += p.Total()
	}
	return total
}

// Standings orders players by total, highest first. Ties keep roster order.
func (s *Session) Standings() []Player {
	out := s.Players()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total() > out[j].Total()
	})
	return out
}

// LeaderSummary names the leader, or every player tied for the lead.
func (s *Session) LeaderSummary() string {
	standings := s.Standings()
	if len(standings) == 0 {
		return ""
	}
	top := standings[0].Total()
	var leaders []string
	for _, p := range standings {
		if math.Abs(p.Total()-top) < epsilon {
			leaders = append(leaders, p.Name)
		}
	}
	if len(leaders) == 1 {
		return fmt.Sprintf("Leader: %s (%s)", leaders[0], FormatScore(top))
	}
	return fmt.Sprintf("Tied: %s (%s)", strings.Join(leaders, ", "), FormatScore(top))
}

// PlayerSummary is a compact roster line, truncated after three names.
func (s *Session) PlayerSummary() string {
	switch n := len(s.players); {
	case n == 0:
		return "No players yet"
	case n == 1:
		return s.players[0].Name
	case n == 2:
		return s.players[0].Name + " vs " + s.players[1].Name
	case n <= 4:
		return strings.Join(s.names(s.players), ", ")
	default:
		return fmt.Sprintf("%s +%d more", strings.Join(s.names(s.players[:3]), ", "), n-3)
	}
}

func (s *Session) names(players []*Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

// RoundTitle is e.g. "Quarter 3" for index 2.
func (s *Session) RoundTitle(index int) string {
	return fmt.Sprintf("%s %d", s.Preset.RoundLabel, index+1)
}

// RoundStatusHeadline is e.g. "Half 1 of 2".
func (s *Session) RoundStatusHeadline() string {
	return fmt.Sprintf("%s %d of %d", s.Preset.RoundLabel, s.CurrentRoundNumber(), s.TotalRounds())
}

// RoundStatusDetail is "In progress" until the last round.
func (s *Session) RoundStatusDetail() string {
	if s.CanAdvanceRound() {
		return "In progress"
	}
	return "Final " + strings.ToLower(s.Preset.RoundLabel)
}

// RoundStatusBadge is e.g. "1/2 half".
func (s *Session) RoundStatusBadge() string {
	return fmt.Sprintf("%d/%d %s", s.CurrentRoundNumber(), s.TotalRounds(), strings.ToLower(s.Preset.RoundLabel))
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	players := make([]*Player, len(s.players))
	for i, p := range s.players {
		players[i] = p.clone()
	}
	return &Session{
		ID:           s.ID,
		Preset:       s.Preset,
		players:      players,
		currentRound: s.currentRound,
	}
}
