// Package feedback turns score changes into sound and haptic cues.
package feedback

import (
	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/models"
)

type Kind int

const (
	Success Kind = iota
	Warning
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Signal is one cue. Sound and Vibration mirror the settings at the time of
// the score change. SessionID is uuid.Nil when the change is not tied to a
// session.
type Signal struct {
	Kind      Kind      `json:"kind"`
	Sound     bool      `json:"sound"`
	Vibration bool      `json:"vibration"`
	SessionID uuid.UUID `json:"session_id"`
	Delta     float64   `json:"delta"`
}

// Trigger plays a signal on some device or channel.
type Trigger interface {
	Play(sig Signal)
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(sig Signal)

func (f TriggerFunc) Play(sig Signal) { f(sig) }

// Manager decides whether a score change deserves a cue and dispatches it
// without waiting for the trigger.
type Manager struct {
	trigger Trigger
}

func NewManager(trigger Trigger) *Manager {
	return &Manager{trigger: trigger}
}

// Dispatch fires a cue for delta. Nothing happens when both channels are
// disabled. Non-negative deltas are successes, negative ones warnings.
func (m *Manager) Dispatch(sessionID uuid.UUID, delta float64, settings models.Settings) {
	if m == nil || m.trigger == nil {
		return
	}
	if !settings.SoundEnabled && !settings.VibrationEnabled {
		return
	}
	sig := Signal{
		Kind:      Success,
		Sound:     settings.SoundEnabled,
		Vibration: settings.VibrationEnabled,
		SessionID: sessionID,
		Delta:     delta,
	}
	if delta < 0 {
		sig.Kind = Warning
	}
	go m.trigger.Play(sig)
}

// LogTrigger records cues in the log; used when no client is listening.
type LogTrigger struct{}

func (LogTrigger) Play(sig Signal) {
	logger.Log.Debugw("feedback", "kind", sig.Kind.String(), "sound", sig.Sound,
		"vibration", sig.Vibration, "session", sig.SessionID)
}

// Multi fans one signal out to several triggers.
type Multi []Trigger

func (m Multi) Play(sig Signal) {
	for _, t := range m {
		t.Play(sig)
	}
}
