package game

import (
	"github.com/google/uuid"
)

// Player is one roster entry with a score per round.
type Player struct {
	ID          uuid.UUID
	Name        string
	RoundScores []float64
}

// NewPlayer creates a player with a zeroed score vector.
func NewPlayer(name string, rounds int) *Player {
	return RestorePlayer(uuid.New(), name, rounds, nil)
}

// RestorePlayer rebuilds a player, padding or truncating scores to rounds.
func RestorePlayer(id uuid.UUID, name string, rounds int, scores []float64) *Player {
	return &Player{
		ID:          id,
		Name:        name,
		RoundScores: resize(scores, rounds),
	}
}

// Total is the sum of all round scores.
func (p *Player) Total() float64 {
	total := 0.0
	for _, v := range p.RoundScores {
		total += v
	}
	return total
}

// Reset zeroes every round.
func (p *Player) Reset(rounds int) {
	p.RoundScores = make([]float64, max(rounds, 1))
}

func (p *Player) clone() *Player {
	return &Player{
		ID:          p.ID,
		Name:        p.Name,
		RoundScores: append([]float64(nil), p.RoundScores...),
	}
}

func resize(scores []float64, rounds int) []float64 {
	rounds = max(rounds, 1)
	out := make([]float64, rounds)
	copy(out, scores)
	return out
}
