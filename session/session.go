// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/scorekeeper/network"
)

// Session is one connected client. The scoring sessions it watches are
// managed through Manager so the watcher index stays consistent.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	watching   map[uuid.UUID]struct{} // 关注的计分会话
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
		watching:   make(map[uuid.UUID]struct{}),
	}
}

func (s *Session) IsWatching(gameID uuid.UUID) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.watching[gameID]
	return ok
}

// Watching lists the watched scoring sessions in no particular order.
func (s *Session) Watching() []uuid.UUID {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.watching))
	for id := range s.watching {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) setWatching(gameID uuid.UUID, on bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, was := s.watching[gameID]
	if on {
		s.watching[gameID] = struct{}{}
	} else {
		delete(s.watching, gameID)
	}
	return was
}

// Touch marks the client as active, e.g. on every received packet.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) SendJSON(msgID uint16, v any) error {
	return s.Conn.SendJSON(msgID, v)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks connected clients and, per scoring session, the clients
// watching it.
type Manager struct {
	clients  map[string]*Session
	watchers map[uuid.UUID]map[string]*Session // 计分会话 -> 客户端
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:  make(map[string]*Session),
		watchers: make(map[uuid.UUID]map[string]*Session),
	}
}

func (m *Manager) Add(s *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.clients[s.ID] = s
	for _, gameID := range s.Watching() {
		m.indexLocked(gameID, s)
	}
}

// Remove forgets a client and every watch it held.
func (m *Manager) Remove(clientID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.clients[clientID]
	if !ok {
		return
	}
	delete(m.clients, clientID)
	for _, gameID := range s.Watching() {
		m.unindexLocked(gameID, clientID)
	}
}

func (m *Manager) Get(clientID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, ok := m.clients[clientID]
	return s, ok
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]*Session, 0, len(m.clients))
	for _, s := range m.clients {
		out = append(out, s)
	}
	return out
}

// Watch subscribes s to pushes for gameID.
func (m *Manager) Watch(s *Session, gameID uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s.setWatching(gameID, true)
	if _, ok := m.clients[s.ID]; ok {
		m.indexLocked(gameID, s)
	}
}

// Unwatch reports whether s was watching gameID.
func (m *Manager) Unwatch(s *Session, gameID uuid.UUID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unindexLocked(gameID, s.ID)
	return s.setWatching(gameID, false)
}

// Watchers returns the clients watching gameID.
func (m *Manager) Watchers(gameID uuid.UUID) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	set := m.watchers[gameID]
	out := make([]*Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// Forget drops gameID from every watch list and returns the clients that
// were watching it.
func (m *Manager) Forget(gameID uuid.UUID) []*Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	set := m.watchers[gameID]
	delete(m.watchers, gameID)
	out := make([]*Session, 0, len(set))
	for _, s := range set {
		s.setWatching(gameID, false)
		out = append(out, s)
	}
	return out
}

// IdleSince returns clients with no activity since cutoff.
func (m *Manager) IdleSince(cutoff time.Time) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var out []*Session
	for _, s := range m.clients {
		if s.LastActive().Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) indexLocked(gameID uuid.UUID, s *Session) {
	set, ok := m.watchers[gameID]
	if !ok {
		set = make(map[string]*Session)
		m.watchers[gameID] = set
	}
	set[s.ID] = s
}

func (m *Manager) unindexLocked(gameID uuid.UUID, clientID string) {
	set, ok := m.watchers[gameID]
	if !ok {
		return
	}
	delete(set, clientID)
	if len(set) == 0 {
		delete(m.watchers, gameID)
	}
}
