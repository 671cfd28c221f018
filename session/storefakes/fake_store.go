package storefakes

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session.Store for tests.
type FakeStore struct {
	lock       sync.Mutex
	session    *session.Session
	SaveCalls  int
	ClearCalls int
	LoadErr    error
	SaveErr    error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Seed pre-populates the store without counting as a Save call.
func (fs *FakeStore) Seed(s *session.Session) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.session = s
}

func (fs *FakeStore) Load() (*session.Session, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.LoadErr != nil {
		return nil, fs.LoadErr
	}
	if fs.session == nil {
		return nil, nil
	}
	copied := *fs.session
	return &copied, nil
}

func (fs *FakeStore) Save(s *session.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	copied := *s
	fs.session = &copied
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.ClearCalls++
	fs.session = nil
	return nil
}

// Stored returns the currently persisted session, if any.
func (fs *FakeStore) Stored() *session.Session {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.session
}
