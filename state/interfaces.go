package state

import (
	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/models"
)

// Store persists the whole bundle. Load reports false when nothing usable is
// stored; Save never fails from the caller's point of view.
type Store interface {
	Load() (models.Bundle, bool)
	Save(b models.Bundle)
}

// Dispatcher turns a registered score change into user feedback.
type Dispatcher interface {
	Dispatch(sessionID uuid.UUID, delta float64, settings models.Settings)
}

// Observer is told about every committed change, after the state lock has
// been released. Observers may read back from the AppState.
type Observer interface {
	StateChanged(ev Event)
}

type EventKind int

const (
	SessionAdded EventKind = iota
	SessionUpdated
	SessionsRemoved
	SettingsChanged
	StatisticsChanged
	ScoreRegistered
)

func (k EventKind) String() string {
	switch k {
	case SessionAdded:
		return "session_added"
	case SessionUpdated:
		return "session_updated"
	case SessionsRemoved:
		return "sessions_removed"
	case SettingsChanged:
		return "settings_changed"
	case StatisticsChanged:
		return "statistics_changed"
	case ScoreRegistered:
		return "score_registered"
	default:
		return "unknown"
	}
}

// Event describes one committed change.
type Event struct {
	Kind       EventKind
	SessionIDs []uuid.UUID
	Delta      float64 // ScoreRegistered only
}

type nopStore struct{}

func (nopStore) Load() (models.Bundle, bool) { return models.Bundle{}, false }
func (nopStore) Save(models.Bundle)          {}
