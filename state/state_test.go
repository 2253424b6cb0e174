package state

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/game"
	"github.com/wfunc/scorekeeper/models"
	"github.com/wfunc/scorekeeper/preset"
)

// fakeStore records every saved bundle.
type fakeStore struct {
	mu     sync.Mutex
	bundle *models.Bundle
	saves  []models.Bundle
}

func (f *fakeStore) Load() (models.Bundle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bundle == nil {
		return models.Bundle{}, false
	}
	return *f.bundle, true
}

func (f *fakeStore) Save(b models.Bundle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, b)
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

type dispatch struct {
	sessionID uuid.UUID
	delta     float64
	settings  models.Settings
}

type fakeDispatcher struct {
	calls []dispatch
}

func (f *fakeDispatcher) Dispatch(sessionID uuid.UUID, delta float64, settings models.Settings) {
	f.calls = append(f.calls, dispatch{sessionID, delta, settings})
}

type recorder struct {
	events []Event
}

func (r *recorder) StateChanged(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

var fixedNow = time.Date(2024, 5, 1, 12, 30, 15, 987654321, time.UTC)

func newTestState(t *testing.T) (*AppState, *fakeStore, *fakeDispatcher, *recorder) {
	t.Helper()
	store := &fakeStore{}
	fb := &fakeDispatcher{}
	rec := &recorder{}
	a := New(preset.Library(), store, fb,
		WithClock(func() time.Time { return fixedNow }),
		WithObserver(rec))
	return a, store, fb, rec
}

func mustCreate(t *testing.T, a *AppState, presetID string, names ...string) *game.Session {
	t.Helper()
	s, err := a.CreateSession(presetID, names)
	if err != nil {
		t.Fatalf("CreateSession(%q) failed: %v", presetID, err)
	}
	return s
}

func TestNew_DefaultsWhenStoreEmpty(t *testing.T) {
	a, store, _, _ := newTestState(t)

	if len(a.Sessions()) != 0 {
		t.Errorf("expected no sessions, got %d", len(a.Sessions()))
	}
	if a.Settings() != models.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", a.Settings())
	}
	stats := a.Statistics()
	if stats.TotalSessionsCreated != 0 || stats.TotalScoreEvents != 0 {
		t.Errorf("expected zeroed statistics, got %+v", stats)
	}
	if !stats.LastUpdated.Equal(fixedNow.Truncate(time.Second)) {
		t.Errorf("expected LastUpdated truncated to seconds, got %v", stats.LastUpdated)
	}
	if store.count() != 0 {
		t.Errorf("loading should not save, got %d saves", store.count())
	}
}

func TestNew_DropsUnknownPresets(t *testing.T) {
	known := uuid.New()
	store := &fakeStore{bundle: &models.Bundle{
		Sessions: []models.SessionSnapshot{
			{ID: uuid.New(), PresetID: "curling", Players: []models.PlayerSnapshot{{ID: uuid.New(), Name: "A", Scores: []float64{1}}}},
			{ID: known, PresetID: "chess", Players: []models.PlayerSnapshot{
				{ID: uuid.New(), Name: "White", Scores: []float64{1}},
				{ID: uuid.New(), Name: "Black", Scores: []float64{0}},
			}},
		},
		Settings:   models.Settings{SoundEnabled: false, VibrationEnabled: true},
		Statistics: models.Statistics{TotalSessionsCreated: 7},
	}}

	a := New(preset.Library(), store, nil)

	sessions := a.Sessions()
	if len(sessions) != 1 || sessions[0].ID != known {
		t.Fatalf("expected only the chess session to survive, got %d sessions", len(sessions))
	}
	if a.Settings().SoundEnabled {
		t.Error("expected persisted settings to be restored")
	}
	if a.Statistics().TotalSessionsCreated != 7 {
		t.Errorf("expected persisted statistics, got %+v", a.Statistics())
	}
}

func TestAppState_CreateSession(t *testing.T) {
	a, store, _, rec := newTestState(t)

	s := mustCreate(t, a, "chess", "White", " Black ", "")

	if s.PlayerCount() != 2 {
		t.Errorf("expected blank names to be dropped, got %d players", s.PlayerCount())
	}
	stats := a.Statistics()
	if stats.TotalSessionsCreated != 1 || stats.TotalPlayersTracked != 2 {
		t.Errorf("unexpected statistics %+v", stats)
	}
	if store.count() != 1 {
		t.Errorf("expected one write-through save, got %d", store.count())
	}
	if got := rec.kinds(); len(got) != 2 || got[0] != SessionAdded || got[1] != StatisticsChanged {
		t.Errorf("unexpected events %v", got)
	}

	// returned session is a copy
	s.NextRound()
	stored, _ := a.Session(s.ID)
	if stored.CurrentRoundIndex() != 0 {
		t.Error("mutating the returned session must not touch AppState")
	}
}

func TestAppState_CreateSessionRejectsShortRoster(t *testing.T) {
	a, store, _, _ := newTestState(t)

	_, err := a.CreateSession("football", []string{"Home", "  "})

	var verr *game.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "This preset requires at least 2 player(s)." {
		t.Errorf("unexpected message %q", verr.Message)
	}
	if len(a.Sessions()) != 0 {
		t.Error("no session should be added")
	}
	if store.count() != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestAppState_CreateSessionUnknownPreset(t *testing.T) {
	a, _, _, _ := newTestState(t)
	if _, err := a.CreateSession("curling", []string{"A", "B"}); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("expected ErrPresetNotFound, got %v", err)
	}
}

func TestAppState_RegisterScoreChangeFloorsAtZero(t *testing.T) {
	a, _, fb, _ := newTestState(t)

	a.RegisterScoreChange(5)
	a.RegisterScoreChange(-10)

	stats := a.Statistics()
	if stats.TotalPointsAwarded != 0 {
		t.Errorf("expected points floored at 0, got %v", stats.TotalPointsAwarded)
	}
	if stats.TotalScoreEvents != 2 {
		t.Errorf("expected 2 score events, got %d", stats.TotalScoreEvents)
	}
	if len(fb.calls) != 2 || fb.calls[1].delta != -10 {
		t.Errorf("expected feedback for both changes, got %+v", fb.calls)
	}
}

func TestAppState_RegisterPlayerAdded(t *testing.T) {
	a, store, fb, rec := newTestState(t)
	mustCreate(t, a, "chess", "A", "B")
	saves := store.count()

	a.RegisterPlayerAdded()

	stats := a.Statistics()
	if stats.TotalPlayersTracked != 3 {
		t.Errorf("expected 3 tracked players, got %d", stats.TotalPlayersTracked)
	}
	if stats.TotalSessionsCreated != 1 || stats.TotalScoreEvents != 0 {
		t.Errorf("other counters must not move: %+v", stats)
	}
	if !stats.LastUpdated.Equal(fixedNow.Truncate(time.Second)) {
		t.Errorf("expected LastUpdated stamped, got %v", stats.LastUpdated)
	}
	if store.count() != saves+1 {
		t.Errorf("expected one save, got %d", store.count()-saves)
	}
	if len(fb.calls) != 0 {
		t.Error("adding a player must not play feedback")
	}
	if last := rec.events[len(rec.events)-1]; last.Kind != StatisticsChanged {
		t.Errorf("expected StatisticsChanged, got %v", last.Kind)
	}
}

func TestAppState_RegisterScoreChangeZeroIsNoop(t *testing.T) {
	a, store, fb, rec := newTestState(t)

	a.RegisterScoreChange(0)

	if a.Statistics().TotalScoreEvents != 0 {
		t.Error("zero delta must not count as an event")
	}
	if store.count() != 0 || len(fb.calls) != 0 || len(rec.events) != 0 {
		t.Error("zero delta must have no side effects")
	}
}

func TestAppState_ApplyScore(t *testing.T) {
	a, store, fb, _ := newTestState(t)
	s := mustCreate(t, a, "table-tennis", "A", "B")
	playerA := s.Players()[0].ID
	saves := store.count()

	changed, err := a.ApplyScore(s.ID, playerA, 0)
	if err != nil || !changed {
		t.Fatalf("ApplyScore: changed=%v err=%v", changed, err)
	}

	got, _ := a.Session(s.ID)
	p, _ := got.Player(playerA)
	if p.Total() != 1 {
		t.Errorf("expected total 1, got %v", p.Total())
	}
	if a.Statistics().TotalPointsAwarded != 1 || a.Statistics().TotalScoreEvents != 1 {
		t.Errorf("unexpected statistics %+v", a.Statistics())
	}
	if len(fb.calls) != 1 || fb.calls[0].sessionID != s.ID {
		t.Errorf("expected feedback tagged with session, got %+v", fb.calls)
	}
	if store.count() != saves+1 {
		t.Errorf("expected exactly one save per command, got %d", store.count()-saves)
	}
}

func TestAppState_ApplyScoreClampedStillRegisters(t *testing.T) {
	a, _, _, _ := newTestState(t)
	s := mustCreate(t, a, "table-tennis", "A", "B")
	playerA := s.Players()[0].ID

	// undo on a zero score is clamped by the preset floor
	if _, err := a.ApplyScore(s.ID, playerA, 1); err != nil {
		t.Fatal(err)
	}

	got, _ := a.Session(s.ID)
	p, _ := got.Player(playerA)
	if p.Total() != 0 {
		t.Errorf("expected score to stay at floor, got %v", p.Total())
	}
	if a.Statistics().TotalScoreEvents != 1 {
		t.Errorf("expected the event to be counted, got %d", a.Statistics().TotalScoreEvents)
	}
}

func TestAppState_ApplyScoreErrors(t *testing.T) {
	a, _, _, _ := newTestState(t)
	s := mustCreate(t, a, "chess", "W", "B")
	player := s.Players()[0].ID

	if _, err := a.ApplyScore(uuid.New(), player, 0); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := a.ApplyScore(s.ID, uuid.New(), 0); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := a.ApplyScore(s.ID, player, 9); !errors.Is(err, ErrOptionNotFound) {
		t.Errorf("expected ErrOptionNotFound, got %v", err)
	}
	if a.Statistics().TotalScoreEvents != 0 {
		t.Error("failed commands must not register events")
	}
}

func TestAppState_RoundNavigation(t *testing.T) {
	a, store, _, _ := newTestState(t)
	s := mustCreate(t, a, "football", "Home", "Away")
	saves := store.count()

	if changed, _ := a.PreviousRound(s.ID); changed {
		t.Error("rewind at round one should not change state")
	}
	if store.count() != saves {
		t.Error("unchanged command should not persist")
	}
	if changed, _ := a.NextRound(s.ID); !changed {
		t.Error("expected advance")
	}
	if changed, _ := a.NextRound(s.ID); changed {
		t.Error("advance past the last half should saturate")
	}
	got, _ := a.Session(s.ID)
	if got.CurrentRoundIndex() != 1 {
		t.Errorf("expected round index 1, got %d", got.CurrentRoundIndex())
	}
	if _, err := a.NextRound(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppState_ResetScores(t *testing.T) {
	a, _, _, _ := newTestState(t)
	s := mustCreate(t, a, "basketball", "Home", "Away")
	home := s.Players()[0].ID
	a.ApplyScore(s.ID, home, 2)
	a.NextRound(s.ID)

	changed, err := a.ResetScores(s.ID)
	if err != nil || !changed {
		t.Fatalf("ResetScores: changed=%v err=%v", changed, err)
	}
	got, _ := a.Session(s.ID)
	if !got.IsPristine() {
		t.Error("expected pristine session after reset")
	}
	if a.Statistics().TotalPointsAwarded != 3 {
		t.Error("reset must not touch lifetime statistics")
	}
}

func TestAppState_RosterCommands(t *testing.T) {
	a, _, _, _ := newTestState(t)
	s := mustCreate(t, a, "chess", "White", "Black")

	added, err := a.AddPlayer(s.ID)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if added.Name != "Challenger 1" {
		t.Errorf("expected suggested name, got %q", added.Name)
	}
	if a.Statistics().TotalPlayersTracked != 3 {
		t.Errorf("expected 3 tracked players, got %d", a.Statistics().TotalPlayersTracked)
	}

	if changed, err := a.RenamePlayer(s.ID, added.ID, "Magnus"); err != nil || !changed {
		t.Errorf("RenamePlayer: changed=%v err=%v", changed, err)
	}
	if changed, err := a.RemovePlayer(s.ID, added.ID); err != nil || !changed {
		t.Errorf("RemovePlayer: changed=%v err=%v", changed, err)
	}

	got, _ := a.Session(s.ID)
	if _, err := a.RemovePlayer(s.ID, got.Players()[0].ID); !errors.Is(err, ErrRosterMinimum) {
		t.Errorf("expected ErrRosterMinimum, got %v", err)
	}
	if _, err := a.RenamePlayer(s.ID, uuid.New(), "x"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
	if a.Statistics().TotalPlayersTracked != 3 {
		t.Error("removing players must not decrement lifetime counters")
	}
}

func TestAppState_AddPlayerRosterFull(t *testing.T) {
	a, store, _, _ := newTestState(t)
	s := mustCreate(t, a, "football", "Home", "Away")
	saves := store.count()

	if _, err := a.AddPlayer(s.ID); !errors.Is(err, ErrRosterFull) {
		t.Errorf("expected ErrRosterFull, got %v", err)
	}
	if store.count() != saves {
		t.Error("rejected command should not persist")
	}
}

func TestAppState_DeleteSessionsKeepsCounters(t *testing.T) {
	a, _, _, rec := newTestState(t)
	first := mustCreate(t, a, "chess", "A", "B")
	second := mustCreate(t, a, "football", "A", "B")
	third := mustCreate(t, a, "chess", "A", "B")
	rec.events = nil

	if n := a.DeleteSessions([]int{0, 2, 7, -1}); n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	ids := a.SessionIDs()
	if len(ids) != 1 || ids[0] != second.ID {
		t.Errorf("expected only the second session to remain, got %v", ids)
	}
	if len(rec.events) == 0 || rec.events[0].Kind != SessionsRemoved || len(rec.events[0].SessionIDs) != 2 {
		t.Fatalf("unexpected events %+v", rec.events)
	}
	if rec.events[0].SessionIDs[0] != first.ID || rec.events[0].SessionIDs[1] != third.ID {
		t.Error("removed ids should be reported in display order")
	}
	if a.Statistics().TotalSessionsCreated != 3 {
		t.Error("deleting must not decrement sessions created")
	}

	if !a.DeleteSession(second.ID) {
		t.Error("expected DeleteSession to remove by id")
	}
	if a.DeleteSession(second.ID) {
		t.Error("second delete should report false")
	}
}

func TestAppState_ClearSessions(t *testing.T) {
	a, store, _, _ := newTestState(t)
	a.ClearSessions()
	if store.count() != 0 {
		t.Error("clearing an empty list should not persist")
	}

	mustCreate(t, a, "chess", "A", "B")
	mustCreate(t, a, "chess", "C", "D")
	a.ClearSessions()

	if len(a.Sessions()) != 0 {
		t.Error("expected no sessions")
	}
	if a.Statistics().TotalPlayersTracked != 4 {
		t.Error("clearing must not touch lifetime counters")
	}
}

func TestAppState_ResetStatistics(t *testing.T) {
	a, _, _, _ := newTestState(t)
	mustCreate(t, a, "chess", "A", "B")
	a.RegisterScoreChange(3)

	a.ResetStatistics()

	stats := a.Statistics()
	if stats.TotalSessionsCreated != 0 || stats.TotalPointsAwarded != 0 || stats.TotalScoreEvents != 0 {
		t.Errorf("expected zeroed statistics, got %+v", stats)
	}
	if len(a.Sessions()) != 1 {
		t.Error("reset must keep sessions")
	}
}

func TestAppState_Settings(t *testing.T) {
	a, store, _, rec := newTestState(t)

	if a.SetSoundEnabled(true) {
		t.Error("setting the current value should not report a change")
	}
	if !a.SetVibrationEnabled(false) {
		t.Error("expected change")
	}
	if store.count() != 1 {
		t.Errorf("expected one save, got %d", store.count())
	}
	if got := rec.kinds(); len(got) != 1 || got[0] != SettingsChanged {
		t.Errorf("unexpected events %v", got)
	}

	a.RegisterScoreChange(1)
	fbSettings := a.Settings()
	if fbSettings.VibrationEnabled {
		t.Error("expected vibration off")
	}
}

func TestAppState_FeedbackSeesCurrentSettings(t *testing.T) {
	a, _, fb, _ := newTestState(t)
	a.SetSoundEnabled(false)

	a.RegisterScoreChange(-1)

	if len(fb.calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(fb.calls))
	}
	if fb.calls[0].settings.SoundEnabled {
		t.Error("dispatch should receive the current settings")
	}
}

func TestAppState_Derived(t *testing.T) {
	a, _, _, _ := newTestState(t)

	if d := a.Derived(); d.ActiveSessions != 0 || d.FavoritePresetID != "" || d.AveragePointsPerActiveSession != 0 {
		t.Errorf("expected empty overview, got %+v", d)
	}

	chess := mustCreate(t, a, "chess", "A", "B", "C")
	mustCreate(t, a, "football", "Home", "Away")
	a.ApplyScore(chess.ID, chess.Players()[0].ID, 0)
	a.ApplyScore(chess.ID, chess.Players()[1].ID, 1)

	d := a.Derived()
	if d.ActiveSessions != 2 || d.ActivePlayers != 5 {
		t.Errorf("unexpected counts %+v", d)
	}
	if d.TotalActivePoints != 1.5 || d.AveragePointsPerActiveSession != 0.75 {
		t.Errorf("unexpected points %+v", d)
	}
	// one each: football comes first in the catalog
	if d.FavoritePresetID != "football" || d.FavoritePresetName != "Football" {
		t.Errorf("expected football as tie-break favorite, got %q", d.FavoritePresetID)
	}

	mustCreate(t, a, "chess", "A", "B")
	if d := a.Derived(); d.FavoritePresetID != "chess" {
		t.Errorf("expected chess as favorite, got %q", d.FavoritePresetID)
	}
}

func TestAppState_BundleRoundTrip(t *testing.T) {
	a, store, _, _ := newTestState(t)
	s := mustCreate(t, a, "volleyball", "A", "B")
	a.NextRound(s.ID)

	last := store.saves[len(store.saves)-1]
	if len(last.Sessions) != 1 || last.Sessions[0].CurrentRoundIndex != 1 {
		t.Fatalf("unexpected persisted bundle %+v", last)
	}
	if !reflect.DeepEqual(a.Bundle(), last) {
		t.Errorf("Bundle should match the last save\n got: %+v\nwant: %+v", a.Bundle(), last)
	}

	reloaded := New(preset.Library(), &fakeStore{bundle: &last}, nil)
	got, ok := reloaded.Session(s.ID)
	if !ok {
		t.Fatal("expected session after reload")
	}
	if got.CurrentRoundIndex() != 1 || got.PlayerCount() != 2 {
		t.Errorf("unexpected reloaded session: round=%d players=%d", got.CurrentRoundIndex(), got.PlayerCount())
	}
}

type readBackObserver struct {
	a     *AppState
	count int
}

func (o *readBackObserver) StateChanged(Event) {
	o.count = len(o.a.Sessions())
}

func TestAppState_ObserverCanReadBack(t *testing.T) {
	a, _, _, _ := newTestState(t)
	obs := &readBackObserver{a: a}
	a.AddObserver(obs)

	mustCreate(t, a, "chess", "A", "B")

	if obs.count != 1 {
		t.Errorf("observer should see the committed session, got %d", obs.count)
	}
}

func TestEventKind_String(t *testing.T) {
	if SessionsRemoved.String() != "sessions_removed" {
		t.Errorf("unexpected %q", SessionsRemoved.String())
	}
	if EventKind(99).String() != "unknown" {
		t.Error("expected unknown")
	}
}
