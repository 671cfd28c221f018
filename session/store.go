package session

// Store is the persistence contract for the last-known session. Load
// returns (nil, nil) when no session is persisted; a record that cannot be
// decoded is treated the same as an absent one, never as an error the
// caller has to distinguish from "never signed in".
//
// Stores are used from a single owning goroutine and only need to survive
// sequential use without corrupting state.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}
