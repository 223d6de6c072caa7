package server

import (
	"errors"
	"testing"
)

func TestRoomRegistryCreate(t *testing.T) {
	r := NewRoomRegistry("main")

	if err := r.Create("vip"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := r.Create("vip"); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("Expected ErrRoomExists, got %v", err)
	}

	// The default room name is always taken
	if err := r.Create("main"); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("Expected ErrRoomExists for default room, got %v", err)
	}
}

func TestRoomRegistryJoinUnknownRoom(t *testing.T) {
	r := NewRoomRegistry("main")

	if err := r.Join("alice", "nowhere"); !errors.Is(err, ErrNoSuchRoom) {
		t.Fatalf("Expected ErrNoSuchRoom, got %v", err)
	}
}

func TestRoomRegistryJoinDefaultRoomIsImplicit(t *testing.T) {
	r := NewRoomRegistry("main")

	// "main" is never created but is always a valid join target
	if err := r.Join("alice", "main"); err != nil {
		t.Fatalf("Join default room failed: %v", err)
	}

	members := r.Members("main")
	if len(members) != 1 || members[0] != "alice" {
		t.Fatalf("Expected [alice] in main, got %v", members)
	}
}

func TestRoomRegistryJoinMovesMembership(t *testing.T) {
	r := NewRoomRegistry("main")

	if err := r.Create("lobby"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := r.Join("alice", "main"); err != nil {
		t.Fatalf("Join main failed: %v", err)
	}
	if err := r.Join("alice", "lobby"); err != nil {
		t.Fatalf("Join lobby failed: %v", err)
	}

	if got := r.Members("main"); len(got) != 0 {
		t.Fatalf("Expected no ghost membership in main, got %v", got)
	}
	if got := r.Members("lobby"); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("Expected [alice] in lobby, got %v", got)
	}
}

func TestRoomRegistryLeaveRemovesEverywhere(t *testing.T) {
	r := NewRoomRegistry("main")

	if err := r.Create("vip"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := r.Join("alice", "vip"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	r.Leave("alice")

	if got := r.Members("vip"); len(got) != 0 {
		t.Fatalf("Expected empty vip after leave, got %v", got)
	}

	// Leaving again is a no-op
	r.Leave("alice")
}

func TestRoomRegistryExists(t *testing.T) {
	r := NewRoomRegistry("main")

	if !r.Exists("main") {
		t.Fatal("Default room should always exist")
	}
	if r.Exists("vip") {
		t.Fatal("vip should not exist yet")
	}

	if err := r.Create("vip"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !r.Exists("vip") {
		t.Fatal("vip should exist after Create")
	}
}
