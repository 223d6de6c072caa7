package server

import (
	"errors"
	"sync"
)

var (
	// ErrRoomExists is returned when creating a room whose name is taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrNoSuchRoom is returned when joining a room that was never created.
	ErrNoSuchRoom = errors.New("room does not exist")
)

// RoomRegistry tracks which usernames belong to which room. A username
// is a member of at most one room at any instant: Join removes it from
// its previous room and adds it to the target under a single lock.
type RoomRegistry struct {
	defaultRoom string
	mu          sync.Mutex
	rooms       map[string]map[string]bool
}

// NewRoomRegistry creates a room registry. defaultRoom is always a
// valid join target even though it is never explicitly created.
func NewRoomRegistry(defaultRoom string) *RoomRegistry {
	return &RoomRegistry{
		defaultRoom: defaultRoom,
		rooms:       make(map[string]map[string]bool),
	}
}

// Create adds a new empty room. Returns ErrRoomExists if the name is
// taken. The default room name counts as taken.
func (r *RoomRegistry) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == r.defaultRoom {
		return ErrRoomExists
	}
	if _, exists := r.rooms[name]; exists {
		return ErrRoomExists
	}
	r.rooms[name] = make(map[string]bool)
	return nil
}

// Join moves username from its current room (if tracked) into target.
// Both mutations happen under one critical section so a concurrent
// membership scan never sees the username in two rooms or in none.
func (r *RoomRegistry) Join(username, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.rooms[target]
	if !exists {
		if target != r.defaultRoom {
			return ErrNoSuchRoom
		}
		members = make(map[string]bool)
		r.rooms[target] = members
	}

	for _, m := range r.rooms {
		delete(m, username)
	}
	members[username] = true
	return nil
}

// Leave removes username from every room. No-op if it was never
// tracked (e.g. it only ever sat in the implicit default room).
func (r *RoomRegistry) Leave(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.rooms {
		delete(m, username)
	}
}

// Members returns a snapshot of a room's member set.
func (r *RoomRegistry) Members(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]string, 0, len(r.rooms[room]))
	for username := range r.rooms[room] {
		members = append(members, username)
	}
	return members
}

// Exists reports whether a room is a valid join target.
func (r *RoomRegistry) Exists(name string) bool {
	if name == r.defaultRoom {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.rooms[name]
	return ok
}
