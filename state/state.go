// Package state owns every scoring session together with the app settings
// and lifetime statistics. Each command is applied to a copy, committed,
// persisted as a full bundle, and then announced to observers.
package state

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/game"
	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/models"
	"github.com/wfunc/scorekeeper/preset"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrOptionNotFound  = errors.New("scoring option not found")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrRosterFull      = errors.New("roster is full")
	ErrRosterMinimum   = errors.New("roster is at its minimum size")
)

type AppState struct {
	catalog    preset.Catalog
	sessions   []*game.Session
	settings   models.Settings
	statistics models.Statistics
	store      Store
	feedback   Dispatcher
	observers  []Observer
	now        func() time.Time
	mutex      sync.Mutex
}

type Option func(*AppState)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *AppState) { a.now = now }
}

// WithObserver registers an observer before the first command runs.
func WithObserver(o Observer) Option {
	return func(a *AppState) { a.observers = append(a.observers, o) }
}

// New loads the persisted bundle from store, falling back to defaults.
// Sessions whose preset is no longer in catalog are dropped.
func New(catalog preset.Catalog, store Store, feedback Dispatcher, opts ...Option) *AppState {
	a := &AppState{
		catalog:  catalog,
		store:    store,
		feedback: feedback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = nopStore{}
	}

	bundle, ok := a.store.Load()
	if !ok {
		bundle = models.DefaultBundle(a.timestamp())
	}
	for _, snap := range bundle.Sessions {
		s, ok := game.FromSnapshot(snap, catalog)
		if !ok {
			logger.Log.Warnw("dropping session with unknown preset", "session", snap.ID, "preset", snap.PresetID)
			continue
		}
		a.sessions = append(a.sessions, s)
	}
	a.settings = bundle.Settings
	a.statistics = bundle.Statistics
	return a
}

// AddObserver registers o for future changes.
func (a *AppState) AddObserver(o Observer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.observers = append(a.observers, o)
}

func (a *AppState) timestamp() time.Time {
	return a.now().UTC().Truncate(time.Second)
}

func (a *AppState) stamp() {
	a.statistics.LastUpdated = a.timestamp()
}

// commit runs fn under the lock. When fn reports events the bundle is
// persisted before the lock is released, then observers are notified.
func (a *AppState) commit(fn func() []Event) {
	a.mutex.Lock()
	events := fn()
	if len(events) > 0 {
		a.store.Save(a.bundleLocked())
	}
	observers := append([]Observer(nil), a.observers...)
	a.mutex.Unlock()

	for _, ev := range events {
		for _, o := range observers {
			o.StateChanged(ev)
		}
	}
}

func (a *AppState) bundleLocked() models.Bundle {
	snaps := make([]models.SessionSnapshot, len(a.sessions))
	for i, s := range a.sessions {
		snaps[i] = s.Snapshot()
	}
	return models.Bundle{
		Sessions:   snaps,
		Settings:   a.settings,
		Statistics: a.statistics,
	}
}

// Bundle returns what would be persisted right now.
func (a *AppState) Bundle() models.Bundle {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.bundleLocked()
}

func (a *AppState) indexOf(id uuid.UUID) int {
	for i, s := range a.sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// --- reads ---

func (a *AppState) Presets() preset.Catalog {
	return append(preset.Catalog(nil), a.catalog...)
}

// Sessions returns copies of every session in order.
func (a *AppState) Sessions() []*game.Session {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := make([]*game.Session, len(a.sessions))
	for i, s := range a.sessions {
		out[i] = s.Clone()
	}
	return out
}

// Session returns a copy of one session.
func (a *AppState) Session(id uuid.UUID) (*game.Session, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if i := a.indexOf(id); i >= 0 {
		return a.sessions[i].Clone(), true
	}
	return nil, false
}

func (a *AppState) Settings() models.Settings {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.settings
}

func (a *AppState) Statistics() models.Statistics {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.statistics
}

// --- session registry ---

// AddSession takes ownership of s and counts it in the lifetime statistics.
func (a *AppState) AddSession(s *game.Session) {
	a.commit(func() []Event {
		a.sessions = append(a.sessions, s)
		a.statistics.TotalSessionsCreated++
		a.statistics.TotalPlayersTracked += s.PlayerCount()
		a.stamp()
		return []Event{
			{Kind: SessionAdded, SessionIDs: []uuid.UUID{s.ID}},
			{Kind: StatisticsChanged},
		}
	})
}

// CreateSession validates a draft roster against the preset and adds the
// resulting session. On a validation error nothing is added.
func (a *AppState) CreateSession(presetID string, names []string) (*game.Session, error) {
	p, ok := a.catalog.Lookup(presetID)
	if !ok {
		return nil, ErrPresetNotFound
	}
	s, err := game.Create(p, names)
	if err != nil {
		return nil, err
	}
	a.AddSession(s.Clone())
	return s, nil
}

// DeleteSessions removes the sessions at the given positions. Out of range
// positions are ignored. Lifetime counters are not decremented.
func (a *AppState) DeleteSessions(indices []int) int {
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}
	return a.removeWhere(func(i int, _ *game.Session) bool {
		_, ok := drop[i]
		return ok
	})
}

// DeleteSession removes one session by id.
func (a *AppState) DeleteSession(id uuid.UUID) bool {
	return a.removeWhere(func(_ int, s *game.Session) bool {
		return s.ID == id
	}) == 1
}

// removeWhere drops every session matched by fn and reports how many went.
func (a *AppState) removeWhere(fn func(i int, s *game.Session) bool) int {
	removed := 0
	a.commit(func() []Event {
		var ids []uuid.UUID
		kept := make([]*game.Session, 0, len(a.sessions))
		for i, s := range a.sessions {
			if fn(i, s) {
				ids = append(ids, s.ID)
				continue
			}
			kept = append(kept, s)
		}
		if len(ids) == 0 {
			return nil
		}
		a.sessions = kept
		removed = len(ids)
		a.stamp()
		return []Event{{Kind: SessionsRemoved, SessionIDs: ids}, {Kind: StatisticsChanged}}
	})
	return removed
}

// ClearSessions removes every session.
func (a *AppState) ClearSessions() {
	a.removeWhere(func(int, *game.Session) bool { return true })
}

// --- statistics ---

// ResetStatistics zeroes the lifetime counters. Sessions and settings stay.
func (a *AppState) ResetStatistics() {
	a.commit(func() []Event {
		a.statistics = models.NewStatistics(a.timestamp())
		return []Event{{Kind: StatisticsChanged}}
	})
}

// RegisterPlayerAdded counts one more tracked player.
func (a *AppState) RegisterPlayerAdded() {
	a.commit(func() []Event {
		a.registerPlayerAddedLocked()
		return []Event{{Kind: StatisticsChanged}}
	})
}

func (a *AppState) registerPlayerAddedLocked() {
	a.statistics.TotalPlayersTracked++
	a.stamp()
}

// RegisterScoreChange records a score event that is not tied to a session.
func (a *AppState) RegisterScoreChange(delta float64) {
	a.commit(func() []Event {
		return a.registerScoreChangeLocked(uuid.Nil, delta)
	})
}

// registerScoreChangeLocked counts the event and adjusts cumulative points.
// Cumulative points never drop below zero; this floor is independent of the
// per-player preset floor.
func (a *AppState) registerScoreChangeLocked(sessionID uuid.UUID, delta float64) []Event {
	if delta == 0 {
		return nil
	}
	a.statistics.TotalScoreEvents++
	if delta > 0 {
		a.statistics.TotalPointsAwarded += delta
	} else {
		a.statistics.TotalPointsAwarded = math.Max(0, a.statistics.TotalPointsAwarded+delta)
	}
	a.stamp()
	if a.feedback != nil {
		a.feedback.Dispatch(sessionID, delta, a.settings)
	}
	var ids []uuid.UUID
	if sessionID != uuid.Nil {
		ids = []uuid.UUID{sessionID}
	}
	return []Event{
		{Kind: ScoreRegistered, SessionIDs: ids, Delta: delta},
		{Kind: StatisticsChanged},
	}
}

// DerivedStatistics is computed from the live sessions and never persisted.
type DerivedStatistics struct {
	ActiveSessions                int     `json:"active_sessions"`
	ActivePlayers                 int     `json:"active_players"`
	TotalActivePoints             float64 `json:"total_active_points"`
	AveragePointsPerActiveSession float64 `json:"average_points_per_active_session"`
	FavoritePresetID              string  `json:"favorite_preset_id,omitempty"`
	FavoritePresetName            string  `json:"favorite_preset_name,omitempty"`
}

// Derived recomputes the live overview. The favorite preset is the one used
// by most sessions; ties go to the preset listed first in the catalog.
func (a *AppState) Derived() DerivedStatistics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var d DerivedStatistics
	counts := make(map[string]int)
	for _, s := range a.sessions {
		d.ActiveSessions++
		d.ActivePlayers += s.PlayerCount()
		d.TotalActivePoints += s.TotalPoints()
		counts[s.Preset.ID]++
	}
	if d.ActiveSessions > 0 {
		d.AveragePointsPerActiveSession = d.TotalActivePoints / float64(d.ActiveSessions)
	}

	best := 0
	for _, p := range a.catalog {
		if n := counts[p.ID]; n > best {
			best = n
			d.FavoritePresetID = p.ID
			d.FavoritePresetName = p.Name
		}
	}
	return d
}

// --- settings ---

func (a *AppState) UpdateSettings(settings models.Settings) bool {
	changed := false
	a.commit(func() []Event {
		if a.settings == settings {
			return nil
		}
		a.settings = settings
		changed = true
		return []Event{{Kind: SettingsChanged}}
	})
	return changed
}

func (a *AppState) SetSoundEnabled(enabled bool) bool {
	s := a.Settings()
	s.SoundEnabled = enabled
	return a.UpdateSettings(s)
}

func (a *AppState) SetVibrationEnabled(enabled bool) bool {
	s := a.Settings()
	s.VibrationEnabled = enabled
	return a.UpdateSettings(s)
}

// --- session commands ---

// mutateSession applies fn to a copy of the session and publishes the copy
// only when fn reports a change.
func (a *AppState) mutateSession(id uuid.UUID, fn func(s *game.Session) (bool, error)) (bool, error) {
	var (
		changed bool
		err     error
	)
	a.commit(func() []Event {
		i := a.indexOf(id)
		if i < 0 {
			err = ErrSessionNotFound
			return nil
		}
		draft := a.sessions[i].Clone()
		changed, err = fn(draft)
		if err != nil || !changed {
			return nil
		}
		a.sessions[i] = draft
		return []Event{{Kind: SessionUpdated, SessionIDs: []uuid.UUID{id}}}
	})
	return changed, err
}

func (a *AppState) NextRound(id uuid.UUID) (bool, error) {
	return a.mutateSession(id, func(s *game.Session) (bool, error) {
		return s.NextRound(), nil
	})
}

func (a *AppState) PreviousRound(id uuid.UUID) (bool, error) {
	return a.mutateSession(id, func(s *game.Session) (bool, error) {
		return s.PreviousRound(), nil
	})
}

func (a *AppState) ResetScores(id uuid.UUID) (bool, error) {
	return a.mutateSession(id, func(s *game.Session) (bool, error) {
		return s.ResetScores(), nil
	})
}

func (a *AppState) RenamePlayer(id, playerID uuid.UUID, name string) (bool, error) {
	return a.mutateSession(id, func(s *game.Session) (bool, error) {
		if _, ok := s.Player(playerID); !ok {
			return false, ErrPlayerNotFound
		}
		return s.RenamePlayer(playerID, name), nil
	})
}

func (a *AppState) RemovePlayer(id, playerID uuid.UUID) (bool, error) {
	return a.mutateSession(id, func(s *game.Session) (bool, error) {
		if _, ok := s.Player(playerID); !ok {
			return false, ErrPlayerNotFound
		}
		if !s.CanRemovePlayer() {
			return false, ErrRosterMinimum
		}
		return s.RemovePlayer(playerID), nil
	})
}

// AddPlayer appends a player to the session and counts it as tracked.
func (a *AppState) AddPlayer(id uuid.UUID) (game.Player, error) {
	var (
		added game.Player
		err   error
	)
	a.commit(func() []Event {
		i := a.indexOf(id)
		if i < 0 {
			err = ErrSessionNotFound
			return nil
		}
		draft := a.sessions[i].Clone()
		p, ok := draft.AddPlayer()
		if !ok {
			err = ErrRosterFull
			return nil
		}
		a.sessions[i] = draft
		added = p
		a.registerPlayerAddedLocked()
		return []Event{
			{Kind: SessionUpdated, SessionIDs: []uuid.UUID{id}},
			{Kind: StatisticsChanged},
		}
	})
	return added, err
}

// ApplyScore applies the preset option at optionIndex to a player in the
// current round and registers the option's delta as a score event.
func (a *AppState) ApplyScore(id, playerID uuid.UUID, optionIndex int) (bool, error) {
	var (
		changed bool
		err     error
	)
	a.commit(func() []Event {
		i := a.indexOf(id)
		if i < 0 {
			err = ErrSessionNotFound
			return nil
		}
		draft := a.sessions[i].Clone()
		option, ok := draft.Preset.Option(optionIndex)
		if !ok {
			err = ErrOptionNotFound
			return nil
		}
		before, ok := draft.Player(playerID)
		if !ok {
			err = ErrPlayerNotFound
			return nil
		}
		draft.Apply(option, playerID)
		after, _ := draft.Player(playerID)

		var events []Event
		if !equalScores(before.RoundScores, after.RoundScores) {
			a.sessions[i] = draft
			events = append(events, Event{Kind: SessionUpdated, SessionIDs: []uuid.UUID{id}})
		}
		events = append(events, a.registerScoreChangeLocked(id, option.Delta)...)
		changed = len(events) > 0
		return events
	})
	return changed, err
}

func equalScores(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SessionIndex returns the display position of a session, or -1.
func (a *AppState) SessionIndex(id uuid.UUID) int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.indexOf(id)
}

// SessionIDs lists session ids in display order.
func (a *AppState) SessionIDs() []uuid.UUID {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	ids := make([]uuid.UUID, len(a.sessions))
	for i, s := range a.sessions {
		ids[i] = s.ID
	}
	return ids
}

