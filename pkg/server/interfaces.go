package server

// CredentialStore defines the credential operations the server needs.
// This abstraction allows for easier testing and potential future
// storage backends.
type CredentialStore interface {
	// Lookup returns the stored password for a username (case-sensitive).
	Lookup(username string) (string, bool)

	// Register adds a new credential entry, persisting it before
	// returning. Implementations report duplicates and empty fields
	// as errors.
	Register(username, password string) error

	// Count returns the number of registered users.
	Count() int
}
