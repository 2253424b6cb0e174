package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wfunc/scorekeeper/preset"
)

var (
	ErrTooFewPlayers  = errors.New("too few players")
	ErrTooManyPlayers = errors.New("too many players")
)

// ValidationError is a user-facing rejection of a new session.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Create builds a session from a draft roster. Names are trimmed and blank
// ones dropped before the preset bounds are checked; nothing is built when
// the roster is out of bounds.
func Create(p preset.Preset, names []string) (*Session, error) {
	clean := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			clean = append(clean, name)
		}
	}

	if len(clean) < p.MinPlayers {
		return nil, &ValidationError{
			Message: fmt.Sprintf("This preset requires at least %d player(s).", p.MinPlayers),
			Err:     ErrTooFewPlayers,
		}
	}
	if p.HasMaxPlayers() && len(clean) > p.MaxPlayers {
		return nil, &ValidationError{
			Message: fmt.Sprintf("This preset supports up to %d player(s).", p.MaxPlayers),
			Err:     ErrTooManyPlayers,
		}
	}

	players := make([]*Player, len(clean))
	for i, name := range clean {
		players[i] = NewPlayer(name, p.Rounds())
	}
	return New(p, players), nil
}
