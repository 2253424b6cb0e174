package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/scorekeeper/broadcast"
	"github.com/wfunc/scorekeeper/config"
	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/network"
	scorekeeper_rpc "github.com/wfunc/scorekeeper/rpc"
	"github.com/wfunc/scorekeeper/services"
	"github.com/wfunc/scorekeeper/session"
	"github.com/wfunc/scorekeeper/timer"
)

// Recorder receives connection and message metrics.
type Recorder interface {
	IncConnectedClients()
	DecConnectedClients()
	IncMessagesReceived()
	ObserveMessageLatency(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) IncConnectedClients()                {}
func (nopRecorder) DecConnectedClients()                {}
func (nopRecorder) IncMessagesReceived()                {}
func (nopRecorder) ObserveMessageLatency(time.Duration) {}

// handlerFunc answers one request. A nil result sends an empty payload.
type handlerFunc func(sess *session.Session, packet *network.Packet) (any, error)

type ScoreServer struct {
	addr           string
	heartbeat      time.Duration
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	scores         *services.ScoreService
	broadcaster    broadcast.Broadcaster
	rpcServer      *scorekeeper_rpc.Server
	timers         *timer.TimerManager
	recorder       Recorder
	handlers       map[uint16]handlerFunc
	httpServer     *http.Server
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

type Option func(*ScoreServer)

func WithRPC(rpcServer *scorekeeper_rpc.Server) Option {
	return func(s *ScoreServer) { s.rpcServer = rpcServer }
}

// WithTimers shares a timer manager with other periodic jobs.
func WithTimers(timers *timer.TimerManager) Option {
	return func(s *ScoreServer) { s.timers = timers }
}

func WithRecorder(r Recorder) Option {
	return func(s *ScoreServer) { s.recorder = r }
}

func NewScoreServer(cfg config.ServerConfig, scores *services.ScoreService, sessionManager *session.Manager, broadcaster broadcast.Broadcaster, opts ...Option) *ScoreServer {
	s := &ScoreServer{
		addr:           cfg.HTTPAddress,
		heartbeat:      cfg.Heartbeat,
		sessionManager: sessionManager,
		scores:         scores,
		broadcaster:    broadcaster,
		recorder:       nopRecorder{},
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerHandlers()
	return s
}

// Handler serves the websocket endpoint at /ws.
func (s *ScoreServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start runs the RPC server and the idle sweep, then blocks serving HTTP.
func (s *ScoreServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	if s.heartbeat > 0 {
		if s.timers == nil {
			s.timers = timer.NewTimerManager()
		}
		s.timers.AddTimer(s.heartbeat, s.heartbeat, s.sweepIdle)
	}

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Log.Infof("Score server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ScoreServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.timers != nil {
			s.timers.Stop()
		}
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
		// hijacked websocket connections are not closed by http.Server
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
	})
	return err
}

// sweepIdle closes clients that have been silent for two heartbeats. The
// read loop of each closed client does the cleanup.
func (s *ScoreServer) sweepIdle() {
	cutoff := time.Now().Add(-2 * s.heartbeat)
	for _, sess := range s.sessionManager.IdleSince(cutoff) {
		logger.Log.Infof("Closing idle session %s", sess.GetID())
		sess.Close()
	}
}

func (s *ScoreServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *ScoreServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.heartbeat > 0 {
		wsConn.SetHeartbeat(s.heartbeat)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.recorder.IncConnectedClients()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.recorder.DecConnectedClients()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *ScoreServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	sess.Touch()
	s.recorder.IncMessagesReceived()
	defer func() { s.recorder.ObserveMessageLatency(time.Since(start)) }()

	if packet.MsgID == network.MsgTypeHeartbeat {
		return
	}

	handler, ok := s.handlers[packet.MsgID]
	if !ok {
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, packet.MsgID, "Unknown Request", "Unsupported message type.")
		return
	}

	result, err := handler(sess, packet)
	if err != nil {
		title, message := services.Describe(err)
		logger.Log.Infow("request failed", "session", sess.GetID(), "msg", packet.MsgID, "error", err)
		s.sendError(sess, packet.MsgID, title, message)
		return
	}
	if result == nil {
		result = struct{}{}
	}
	if err := sess.SendJSON(packet.MsgID, result); err != nil {
		logger.Log.Warnw("reply failed", "session", sess.GetID(), "msg", packet.MsgID, "error", err)
		if errors.Is(err, network.ErrPayloadTooLarge) {
			s.sendError(sess, packet.MsgID, "Reply Too Large", "The result is too large to send. Delete some sessions and try again.")
		}
	}
}

func (s *ScoreServer) sendError(sess *session.Session, msgID uint16, title, message string) {
	payload := network.ErrorPayload{Request: msgID, Title: title, Message: message}
	if err := sess.SendJSON(network.MsgTypeError, payload); err != nil {
		logger.Log.Warnw("error reply failed", "session", sess.GetID(), "error", err)
	}
}

// decode unmarshals the request payload, wrapping failures for Describe.
func decode(packet *network.Packet, v any) error {
	if err := packet.Decode(v); err != nil {
		return &requestError{err: err}
	}
	return nil
}

type requestError struct{ err error }

func (e *requestError) Error() string { return "malformed request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func (s *ScoreServer) registerHandlers() {
	s.handlers = map[uint16]handlerFunc{
		network.MsgTypeListPresets: func(*session.Session, *network.Packet) (any, error) {
			return s.scores.Presets(), nil
		},
		network.MsgTypeListSessions: func(*session.Session, *network.Packet) (any, error) {
			return s.scores.Sessions(), nil
		},
		network.MsgTypeCreateSession: s.handleCreateSession,
		network.MsgTypeDeleteSession: func(_ *session.Session, packet *network.Packet) (any, error) {
			var req network.DeleteSessionsRequest
			if err := decode(packet, &req); err != nil {
				return nil, err
			}
			n, err := s.scores.DeleteSessions(req)
			if err != nil {
				return nil, err
			}
			return map[string]int{"removed": n}, nil
		},
		network.MsgTypeClearSessions: func(*session.Session, *network.Packet) (any, error) {
			s.scores.ClearSessions()
			return nil, nil
		},
		network.MsgTypeWatchSession: s.handleWatch,
		network.MsgTypeUnwatch:      s.handleUnwatch,
		network.MsgTypeNextRound:    sessionCommand(s.scores.NextRound),
		network.MsgTypePrevRound:    sessionCommand(s.scores.PreviousRound),
		network.MsgTypeResetScores:  sessionCommand(s.scores.ResetScores),
		network.MsgTypeAddPlayer:    sessionCommand(s.scores.AddPlayer),
		network.MsgTypeApplyScore: func(_ *session.Session, packet *network.Packet) (any, error) {
			var req network.ApplyScoreRequest
			if err := decode(packet, &req); err != nil {
				return nil, err
			}
			return s.scores.ApplyScore(req)
		},
		network.MsgTypeRemovePlayer: playerCommand(s.scores.RemovePlayer),
		network.MsgTypeRenamePlayer: playerCommand(s.scores.RenamePlayer),
		network.MsgTypeGetSettings: func(*session.Session, *network.Packet) (any, error) {
			return s.scores.Settings(), nil
		},
		network.MsgTypeUpdateSettings: func(_ *session.Session, packet *network.Packet) (any, error) {
			req := s.scores.Settings()
			if err := decode(packet, &req); err != nil {
				return nil, err
			}
			settings := s.scores.UpdateSettings(req)
			s.pushSettings(settings)
			return settings, nil
		},
		network.MsgTypeGetStatistics: func(*session.Session, *network.Packet) (any, error) {
			return s.scores.Statistics(), nil
		},
		network.MsgTypeResetStatistics: func(*session.Session, *network.Packet) (any, error) {
			return s.scores.ResetStatistics(), nil
		},
	}
}

func sessionCommand[T any](fn func(network.SessionRequest) (T, error)) handlerFunc {
	return func(_ *session.Session, packet *network.Packet) (any, error) {
		var req network.SessionRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return fn(req)
	}
}

func playerCommand[T any](fn func(network.PlayerRequest) (T, error)) handlerFunc {
	return func(_ *session.Session, packet *network.Packet) (any, error) {
		var req network.PlayerRequest
		if err := decode(packet, &req); err != nil {
			return nil, err
		}
		return fn(req)
	}
}

// handleCreateSession creates the session and subscribes the creator to it.
func (s *ScoreServer) handleCreateSession(sess *session.Session, packet *network.Packet) (any, error) {
	var req network.CreateSessionRequest
	if err := decode(packet, &req); err != nil {
		return nil, err
	}
	view, err := s.scores.CreateSession(req)
	if err != nil {
		return nil, err
	}
	s.sessionManager.Watch(sess, view.ID)
	logger.Log.Infof("Session %s created scoring session %s (%s)", sess.GetID(), view.ID, view.PresetID)
	return view, nil
}

func (s *ScoreServer) handleWatch(sess *session.Session, packet *network.Packet) (any, error) {
	var req network.SessionRequest
	if err := decode(packet, &req); err != nil {
		return nil, err
	}
	view, err := s.scores.View(req.SessionID)
	if err != nil {
		return nil, err
	}
	s.sessionManager.Watch(sess, view.ID)
	return view, nil
}

func (s *ScoreServer) handleUnwatch(sess *session.Session, packet *network.Packet) (any, error) {
	var req network.SessionRequest
	if err := decode(packet, &req); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, services.ErrInvalidID
	}
	s.sessionManager.Unwatch(sess, id)
	return nil, nil
}

// pushSettings tells every client about new settings so they can mirror
// the feedback toggles.
func (s *ScoreServer) pushSettings(settings network.SettingsPayload) {
	data, err := json.Marshal(settings)
	if err != nil {
		logger.Log.Errorw("encode settings", "error", err)
		return
	}
	s.broadcaster.BroadcastToAll(network.MsgTypeSettingsChanged, data)
}
