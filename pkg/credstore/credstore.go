// Package credstore provides the on-disk credential table used for
// authentication. Credentials live in a flat text file, one
// username:password record per line, and the whole table is rewritten
// on every successful registration.
package credstore

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

var (
	// ErrExists is returned when registering a username that is already taken.
	ErrExists = errors.New("username already exists")
	// ErrInvalid is returned when a username or password is empty after trimming.
	ErrInvalid = errors.New("invalid username or password")
)

// Store holds the in-memory credential table backed by a flat file.
type Store struct {
	path  string
	mu    sync.RWMutex
	users map[string]string
}

// Open loads the credential file at path, creating an empty file if it
// doesn't exist. Malformed lines are skipped, not fatal; an unreadable
// file yields an empty table so the server can still start.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		users: make(map[string]string),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: create an empty file so later saves have a home.
			if created, cerr := os.Create(path); cerr == nil {
				created.Close()
			} else {
				log.Printf("Failed to create credential file %s: %v", path, cerr)
			}
			return s, nil
		}
		log.Printf("Failed to read credential file %s: %v (starting with empty table)", path, err)
		return s, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		username := strings.TrimSpace(parts[0])
		password := strings.TrimSpace(parts[1])
		if username == "" || password == "" {
			continue
		}
		s.users[username] = password
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Error scanning credential file %s: %v", path, err)
	}

	return s, nil
}

// Lookup returns the stored password for a username. Matching is
// case-sensitive.
func (s *Store) Lookup(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	password, ok := s.users[username]
	return password, ok
}

// Register adds a new credential entry and persists the whole table
// before returning. A failed save is logged but does not undo the
// in-memory registration; the account stays usable until restart.
func (s *Store) Register(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrExists
	}
	s.users[username] = password

	if err := s.saveLocked(); err != nil {
		log.Printf("Failed to save credential file %s: %v", s.path, err)
	}
	return nil
}

// Count returns the number of registered users.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}

// saveLocked rewrites the backing file from the in-memory table.
// Caller must hold s.mu. Whole-file rewrite means a partial write shows
// up as truncated lines, which the loader skips.
func (s *Store) saveLocked() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create credential file: %w", err)
	}

	w := bufio.NewWriter(f)
	for username, password := range s.users {
		fmt.Fprintf(w, "%s:%s\n", username, password)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync credential file: %w", err)
	}
	return f.Close()
}
