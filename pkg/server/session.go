package server

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
)

// Session represents an active client connection
type Session struct {
	ID       uint64
	Username string // immutable once authenticated
	ConnType string // "tcp" or "websocket"

	conn    net.Conn
	writeMu sync.Mutex // serializes writes from broadcasts and replies

	mu   sync.RWMutex // protects room
	room string
}

// NewSession wraps an accepted connection. The session has no identity
// until authentication succeeds and it is registered.
func NewSession(conn net.Conn, connType, defaultRoom string) *Session {
	return &Session{
		ConnType: connType,
		conn:     conn,
		room:     defaultRoom,
	}
}

// Room returns the session's current room
func (s *Session) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.room
}

// SetRoom updates the session's current room
func (s *Session) SetRoom(room string) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
}

// SendLine writes a single line to the client. Writes are serialized so
// broadcasts from other sessions never interleave mid-line.
func (s *Session) SendLine(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := fmt.Fprintf(s.conn, "%s\n", line)
	return err
}

// Close closes the underlying connection
func (s *Session) Close() error {
	return s.conn.Close()
}

// RemoteAddr returns the remote address of the connection
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// OnlineUser is one row of the online-user listing
type OnlineUser struct {
	Username string
	Room     string
}

// SessionManager manages all authenticated sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
	nextID   uint64
	metrics  *Metrics
}

// NewSessionManager creates a new session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[uint64]*Session),
		nextID:   1,
	}
}

// SetMetrics attaches metrics to the session manager
func (sm *SessionManager) SetMetrics(metrics *Metrics) {
	sm.metrics = metrics
}

// Register adds a session to the live set and assigns its ID
func (sm *SessionManager) Register(sess *Session) {
	sm.mu.Lock()
	sess.ID = sm.nextID
	sm.nextID++
	sm.sessions[sess.ID] = sess
	sessionCount := len(sm.sessions)
	sm.mu.Unlock()

	if sm.metrics != nil {
		sm.metrics.RecordActiveSessions(sessionCount)
		sm.metrics.RecordSessionCreated()
	}
}

// Unregister removes a session from the live set. Idempotent: calling
// it for an already-removed session is a no-op.
func (sm *SessionManager) Unregister(sess *Session) {
	sm.mu.Lock()
	if _, ok := sm.sessions[sess.ID]; !ok {
		sm.mu.Unlock()
		return
	}
	delete(sm.sessions, sess.ID)
	sessionCount := len(sm.sessions)
	sm.mu.Unlock()

	if sm.metrics != nil {
		sm.metrics.RecordActiveSessions(sessionCount)
		sm.metrics.RecordSessionDisconnected()
	}
}

// Broadcast sends a line to every session whose current room matches.
// The scan runs under the read lock so it is atomic with respect to
// register/unregister; each recipient's room is read exactly once.
func (sm *SessionManager) Broadcast(room, line string) {
	deadSessions := make([]*Session, 0)
	delivered := 0

	sm.mu.RLock()
	for _, sess := range sm.sessions {
		if sess.Room() != room {
			continue
		}
		if err := sess.SendLine(line); err != nil {
			debugLog.Printf("Session %d: broadcast write failed: %v", sess.ID, err)
			deadSessions = append(deadSessions, sess)
			continue
		}
		delivered++
	}
	sm.mu.RUnlock()

	if sm.metrics != nil {
		sm.metrics.RecordBroadcast(delivered)
	}

	// Remove dead sessions from the broadcast pool. Their own read
	// loops will run full cleanup; this just stops further sends.
	for _, sess := range deadSessions {
		sm.Unregister(sess)
	}
}

// SendPrivate delivers text to the first session whose username
// matches recipient case-insensitively, and echoes a confirmation to
// the sender. Returns false if no such user is online.
func (sm *SessionManager) SendPrivate(sender *Session, recipient, text string) bool {
	var target *Session

	sm.mu.RLock()
	for _, sess := range sm.sessions {
		if strings.EqualFold(sess.Username, recipient) {
			target = sess
			break
		}
	}
	sm.mu.RUnlock()

	if target == nil {
		return false
	}

	if err := target.SendLine(fmt.Sprintf("[Private from %s]: %s", sender.Username, text)); err != nil {
		debugLog.Printf("Session %d: whisper write failed: %v", target.ID, err)
	}
	if err := sender.SendLine(fmt.Sprintf("[Private to %s]: %s", recipient, text)); err != nil {
		debugLog.Printf("Session %d: whisper echo failed: %v", sender.ID, err)
	}

	if sm.metrics != nil {
		sm.metrics.RecordWhisperDelivered()
	}
	return true
}

// ListOnline returns a snapshot of connected users sorted by username
func (sm *SessionManager) ListOnline() []OnlineUser {
	sm.mu.RLock()
	users := make([]OnlineUser, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		users = append(users, OnlineUser{
			Username: sess.Username,
			Room:     sess.Room(),
		})
	}
	sm.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users
}

// CountOnline returns the number of currently connected users
func (sm *SessionManager) CountOnline() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// CloseAll closes all sessions
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, sess := range sm.sessions {
		sess.Close()
	}
	sm.sessions = make(map[uint64]*Session)
}
