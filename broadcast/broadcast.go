// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/feedback"
	"github.com/wfunc/scorekeeper/game"
	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/network"
	"github.com/wfunc/scorekeeper/session"
	"github.com/wfunc/scorekeeper/state"
)

// 广播接口
type Broadcaster interface {
	BroadcastToWatchers(gameID uuid.UUID, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// SessionSource looks up the committed state of a scoring session.
type SessionSource interface {
	Session(id uuid.UUID) (*game.Session, bool)
}

// WatchBroadcaster pushes scoring session changes to the clients watching
// them. It observes the AppState and doubles as a feedback trigger.
type WatchBroadcaster struct {
	source         SessionSource
	sessionManager *session.Manager
}

func NewWatchBroadcaster(source SessionSource, sessionManager *session.Manager) *WatchBroadcaster {
	return &WatchBroadcaster{
		source:         source,
		sessionManager: sessionManager,
	}
}

// SetSource installs the session source when it is built after the
// broadcaster. Must be called before the first event.
func (b *WatchBroadcaster) SetSource(source SessionSource) {
	b.source = source
}

func (b *WatchBroadcaster) BroadcastToWatchers(gameID uuid.UUID, msgID uint16, data []byte) error {
	send(b.sessionManager.Watchers(gameID), msgID, data)
	return nil
}

func (b *WatchBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	send(b.sessionManager.All(), msgID, data)
	return nil
}

func send(sessions []*session.Session, msgID uint16, data []byte) {
	if len(data) > network.MaxPayloadSize {
		logger.Log.Warnw("push too large", "msg", msgID, "size", len(data), "clients", len(sessions))
		notice, err := json.Marshal(network.ErrorPayload{
			Request: msgID,
			Title:   "Update Too Large",
			Message: "An update was too large to send.",
		})
		if err != nil {
			return
		}
		msgID, data = network.MsgTypeError, notice
	}
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败由读循环负责清理连接
			logger.Log.Debugw("push failed", "client", s.ID, "msg", msgID, "error", err)
			continue
		}
	}
}

// StateChanged implements state.Observer.
func (b *WatchBroadcaster) StateChanged(ev state.Event) {
	switch ev.Kind {
	case state.SessionAdded, state.SessionUpdated:
		for _, id := range ev.SessionIDs {
			b.PushSession(id)
		}
	case state.SessionsRemoved:
		for _, id := range ev.SessionIDs {
			watchers := b.sessionManager.Forget(id)
			if len(watchers) == 0 {
				continue
			}
			data, err := json.Marshal(network.SessionRemovedPayload{SessionIDs: []string{id.String()}})
			if err != nil {
				logger.Log.Errorw("encode removal", "error", err)
				continue
			}
			send(watchers, network.MsgTypeSessionRemoved, data)
		}
	}
}

// PushSession sends the current view of gameID to its watchers.
func (b *WatchBroadcaster) PushSession(gameID uuid.UUID) {
	if b.source == nil {
		return
	}
	s, ok := b.source.Session(gameID)
	if !ok {
		return
	}
	data, err := json.Marshal(s.View())
	if err != nil {
		logger.Log.Errorw("encode session view", "session", gameID, "error", err)
		return
	}
	b.BroadcastToWatchers(gameID, network.MsgTypeSessionState, data)
}

// Play implements feedback.Trigger. Cues for a session go to its watchers,
// cues without one go to every client.
func (b *WatchBroadcaster) Play(sig feedback.Signal) {
	payload := network.FeedbackPayload{
		Kind:      sig.Kind.String(),
		Sound:     sig.Sound,
		Vibration: sig.Vibration,
		Delta:     sig.Delta,
	}
	if sig.SessionID != uuid.Nil {
		payload.SessionID = sig.SessionID.String()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorw("encode feedback", "error", err)
		return
	}
	if sig.SessionID == uuid.Nil {
		b.BroadcastToAll(network.MsgTypeFeedback, data)
		return
	}
	b.BroadcastToWatchers(sig.SessionID, network.MsgTypeFeedback, data)
}
