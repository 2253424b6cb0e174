package game

import (
	"github.com/wfunc/scorekeeper/models"
	"github.com/wfunc/scorekeeper/preset"
)

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() models.SessionSnapshot {
	players := make([]models.PlayerSnapshot, len(s.players))
	for i, p := range s.players {
		players[i] = models.PlayerSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			Scores: append([]float64(nil), p.RoundScores...),
		}
	}
	return models.SessionSnapshot{
		CurrentRoundIndex: s.currentRound,
		ID:                s.ID,
		Players:           players,
		PresetID:          s.Preset.ID,
	}
}

// FromSnapshot rebuilds a session against the current catalog. It returns
// false when the snapshot's preset is no longer in the catalog.
func FromSnapshot(snap models.SessionSnapshot, catalog preset.Catalog) (*Session, bool) {
	p, ok := catalog.Lookup(snap.PresetID)
	if !ok {
		return nil, false
	}
	players := make([]*Player, len(snap.Players))
	for i, ps := range snap.Players {
		players[i] = RestorePlayer(ps.ID, ps.Name, p.Rounds(), ps.Scores)
	}
	return Restore(snap.ID, p, players, snap.CurrentRoundIndex), true
}
