package server

import (
	"strings"
	"testing"
)

func newTestSession(sm *SessionManager, username, room string) (*Session, *mockConn) {
	conn := newMockConn()
	sess := NewSession(conn, "tcp", room)
	sess.Username = username
	sm.Register(sess)
	return sess, conn
}

func TestSessionManagerRegisterAssignsIDs(t *testing.T) {
	sm := NewSessionManager()

	sess1, _ := newTestSession(sm, "alice", "main")
	sess2, _ := newTestSession(sm, "bob", "main")

	if sess1.ID == 0 || sess2.ID == 0 {
		t.Fatal("Sessions should get non-zero IDs")
	}
	if sess1.ID == sess2.ID {
		t.Fatalf("Sessions should get distinct IDs, both got %d", sess1.ID)
	}
	if got := sm.CountOnline(); got != 2 {
		t.Fatalf("Expected 2 online, got %d", got)
	}
}

func TestSessionManagerUnregisterIsIdempotent(t *testing.T) {
	sm := NewSessionManager()
	sess, _ := newTestSession(sm, "alice", "main")

	sm.Unregister(sess)
	if got := sm.CountOnline(); got != 0 {
		t.Fatalf("Expected 0 online after unregister, got %d", got)
	}

	// Second call must not corrupt state
	sm.Unregister(sess)
	if got := sm.CountOnline(); got != 0 {
		t.Fatalf("Expected 0 online after double unregister, got %d", got)
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	sm := NewSessionManager()

	_, aliceConn := newTestSession(sm, "alice", "main")
	_, bobConn := newTestSession(sm, "bob", "main")
	_, carolConn := newTestSession(sm, "carol", "lobby")

	sm.Broadcast("main", "hello main")

	for name, conn := range map[string]*mockConn{"alice": aliceConn, "bob": bobConn} {
		lines := conn.lines()
		if len(lines) != 1 || lines[0] != "hello main" {
			t.Fatalf("%s should have received the broadcast, got %v", name, lines)
		}
	}
	if lines := carolConn.lines(); len(lines) != 0 {
		t.Fatalf("carol is in another room and should receive nothing, got %v", lines)
	}
}

func TestBroadcastFollowsRoomChange(t *testing.T) {
	sm := NewSessionManager()
	sess, conn := newTestSession(sm, "alice", "main")

	sess.SetRoom("lobby")
	sm.Broadcast("main", "for main")
	sm.Broadcast("lobby", "for lobby")

	lines := conn.lines()
	if len(lines) != 1 || lines[0] != "for lobby" {
		t.Fatalf("Expected only the lobby broadcast, got %v", lines)
	}
}

func TestBroadcastDropsDeadSessions(t *testing.T) {
	sm := NewSessionManager()

	_, aliveConn := newTestSession(sm, "alice", "main")
	_, deadConn := newTestSession(sm, "bob", "main")
	deadConn.failWrites()

	sm.Broadcast("main", "ping")

	if got := sm.CountOnline(); got != 1 {
		t.Fatalf("Dead session should be removed from the pool, got %d online", got)
	}
	if lines := aliveConn.lines(); len(lines) != 1 {
		t.Fatalf("Healthy session should still receive the broadcast, got %v", lines)
	}
}

func TestSendPrivateMatchesCaseInsensitively(t *testing.T) {
	sm := NewSessionManager()

	sender, senderConn := newTestSession(sm, "alice", "main")
	_, bobConn := newTestSession(sm, "Bob", "lobby")

	if !sm.SendPrivate(sender, "bob", "psst") {
		t.Fatal("Expected delivery to succeed")
	}

	bobLines := bobConn.lines()
	if len(bobLines) != 1 || bobLines[0] != "[Private from alice]: psst" {
		t.Fatalf("Unexpected recipient lines: %v", bobLines)
	}

	senderLines := senderConn.lines()
	if len(senderLines) != 1 || senderLines[0] != "[Private to bob]: psst" {
		t.Fatalf("Unexpected sender echo: %v", senderLines)
	}
}

func TestSendPrivateUserNotFound(t *testing.T) {
	sm := NewSessionManager()
	sender, senderConn := newTestSession(sm, "alice", "main")

	if sm.SendPrivate(sender, "ghost", "anyone there?") {
		t.Fatal("Expected delivery to fail for offline user")
	}
	if lines := senderConn.lines(); len(lines) != 0 {
		t.Fatalf("No delivery anywhere expected, sender got %v", lines)
	}
}

func TestListOnlineSortedSnapshot(t *testing.T) {
	sm := NewSessionManager()

	newTestSession(sm, "carol", "lobby")
	newTestSession(sm, "alice", "main")
	newTestSession(sm, "bob", "main")

	users := sm.ListOnline()
	if len(users) != 3 {
		t.Fatalf("Expected 3 users, got %d", len(users))
	}

	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	if strings.Join(names, ",") != "alice,bob,carol" {
		t.Fatalf("Expected sorted usernames, got %v", names)
	}
	if users[2].Room != "lobby" {
		t.Fatalf("Expected carol in lobby, got %s", users[2].Room)
	}
}

func TestCloseAllEmptiesTheLiveSet(t *testing.T) {
	sm := NewSessionManager()
	newTestSession(sm, "alice", "main")
	newTestSession(sm, "bob", "main")

	sm.CloseAll()

	if got := sm.CountOnline(); got != 0 {
		t.Fatalf("Expected 0 online after CloseAll, got %d", got)
	}
}
