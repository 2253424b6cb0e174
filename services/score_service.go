// services/score_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/game"
	"github.com/wfunc/scorekeeper/models"
	"github.com/wfunc/scorekeeper/network"
	"github.com/wfunc/scorekeeper/preset"
	"github.com/wfunc/scorekeeper/state"
)

var ErrInvalidID = errors.New("invalid id")

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID            string `json:"id"`
	PresetID      string `json:"preset_id"`
	PresetName    string `json:"preset_name"`
	RoundHeadline string `json:"round_headline"`
	LeaderSummary string `json:"leader_summary"`
	PlayerSummary string `json:"player_summary"`
}

// StatisticsReport combines lifetime counters with the live overview.
type StatisticsReport struct {
	Lifetime                models.Statistics       `json:"lifetime"`
	AveragePointsPerSession float64                 `json:"average_points_per_session"`
	Derived                 state.DerivedStatistics `json:"derived"`
}

// ScoreService 传输层与AppState之间的门面, ids arrive as strings.
type ScoreService struct {
	app *state.AppState
}

func NewScoreService(app *state.AppState) *ScoreService {
	return &ScoreService{app: app}
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", kind, raw, ErrInvalidID)
	}
	return id, nil
}

func (s *ScoreService) Presets() preset.Catalog {
	return s.app.Presets()
}

func (s *ScoreService) Sessions() []SessionSummary {
	sessions := s.app.Sessions()
	out := make([]SessionSummary, len(sessions))
	for i, g := range sessions {
		out[i] = SessionSummary{
			ID:            g.ID.String(),
			PresetID:      g.Preset.ID,
			PresetName:    g.Preset.Name,
			RoundHeadline: g.RoundStatusHeadline(),
			LeaderSummary: g.LeaderSummary(),
			PlayerSummary: g.PlayerSummary(),
		}
	}
	return out
}

// View returns the current view of one session.
func (s *ScoreService) View(rawID string) (game.View, error) {
	id, err := parseID("session", rawID)
	if err != nil {
		return game.View{}, err
	}
	return s.view(id)
}

func (s *ScoreService) view(id uuid.UUID) (game.View, error) {
	g, ok := s.app.Session(id)
	if !ok {
		return game.View{}, state.ErrSessionNotFound
	}
	return g.View(), nil
}

func (s *ScoreService) CreateSession(req network.CreateSessionRequest) (game.View, error) {
	g, err := s.app.CreateSession(req.PresetID, req.Names)
	if err != nil {
		return game.View{}, err
	}
	return g.View(), nil
}

// DeleteSessions removes by id and by display position. Unknown ids are
// ignored like out of range positions.
func (s *ScoreService) DeleteSessions(req network.DeleteSessionsRequest) (int, error) {
	indices := append([]int(nil), req.Indices...)
	for _, raw := range req.SessionIDs {
		id, err := parseID("session", raw)
		if err != nil {
			return 0, err
		}
		if i := s.app.SessionIndex(id); i >= 0 {
			indices = append(indices, i)
		}
	}
	return s.app.DeleteSessions(indices), nil
}

func (s *ScoreService) ClearSessions() {
	s.app.ClearSessions()
}

// command runs fn against the session and returns its view afterwards.
func (s *ScoreService) command(rawID string, fn func(id uuid.UUID) error) (game.View, error) {
	id, err := parseID("session", rawID)
	if err != nil {
		return game.View{}, err
	}
	if err := fn(id); err != nil {
		return game.View{}, err
	}
	return s.view(id)
}

func (s *ScoreService) NextRound(req network.SessionRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		_, err := s.app.NextRound(id)
		return err
	})
}

func (s *ScoreService) PreviousRound(req network.SessionRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		_, err := s.app.PreviousRound(id)
		return err
	})
}

func (s *ScoreService) ResetScores(req network.SessionRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		_, err := s.app.ResetScores(id)
		return err
	})
}

func (s *ScoreService) ApplyScore(req network.ApplyScoreRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		playerID, err := parseID("player", req.PlayerID)
		if err != nil {
			return err
		}
		_, err = s.app.ApplyScore(id, playerID, req.OptionIndex)
		return err
	})
}

func (s *ScoreService) AddPlayer(req network.SessionRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		_, err := s.app.AddPlayer(id)
		return err
	})
}

func (s *ScoreService) RemovePlayer(req network.PlayerRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		playerID, err := parseID("player", req.PlayerID)
		if err != nil {
			return err
		}
		_, err = s.app.RemovePlayer(id, playerID)
		return err
	})
}

func (s *ScoreService) RenamePlayer(req network.PlayerRequest) (game.View, error) {
	return s.command(req.SessionID, func(id uuid.UUID) error {
		playerID, err := parseID("player", req.PlayerID)
		if err != nil {
			return err
		}
		_, err = s.app.RenamePlayer(id, playerID, req.Name)
		return err
	})
}

func (s *ScoreService) Settings() network.SettingsPayload {
	settings := s.app.Settings()
	return network.SettingsPayload{
		SoundEnabled:     settings.SoundEnabled,
		VibrationEnabled: settings.VibrationEnabled,
	}
}

func (s *ScoreService) UpdateSettings(req network.SettingsPayload) network.SettingsPayload {
	s.app.UpdateSettings(models.Settings{
		SoundEnabled:     req.SoundEnabled,
		VibrationEnabled: req.VibrationEnabled,
	})
	return s.Settings()
}

func (s *ScoreService) Statistics() StatisticsReport {
	lifetime := s.app.Statistics()
	return StatisticsReport{
		Lifetime:                lifetime,
		AveragePointsPerSession: lifetime.AveragePointsPerSession(),
		Derived:                 s.app.Derived(),
	}
}

func (s *ScoreService) ResetStatistics() StatisticsReport {
	s.app.ResetStatistics()
	return s.Statistics()
}

// Describe turns a command error into the title and message a client shows.
func Describe(err error) (title, message string) {
	var verr *game.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Can't Create Session", verr.Message
	case errors.Is(err, state.ErrPresetNotFound):
		return "Can't Create Session", "Unknown preset."
	case errors.Is(err, state.ErrRosterFull):
		return "Can't Add Player", "This preset has reached its maximum number of players."
	case errors.Is(err, state.ErrRosterMinimum):
		return "Can't Remove Player", "This preset requires more players."
	default:
		return "Request Failed", err.Error()
	}
}
