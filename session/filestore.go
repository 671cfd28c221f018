package session

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// storageKey is the versioned file name the session record is persisted
// under. Bump the version whenever the persisted schema changes in an
// incompatible way; an old record under the new key simply reads as absent.
const storageKey = "auth-session.v1.json"

const (
	saltLength  = 16
	keyLength   = 32
	nonceLength = 24
)

// sealedRecord wraps an encrypted session record together with the scrypt
// salt and secretbox nonce needed to open it again.
type sealedRecord struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// FileStore persists the session as a JSON file in a directory. With a
// passphrase configured the record is sealed at rest with a secretbox key
// derived via scrypt.
type FileStore struct {
	dir        string
	passphrase string
}

// FileStoreOption defines a function type to modify the FileStore instance.
type FileStoreOption func(*FileStore)

// WithPassphrase enables at-rest encryption of the persisted record.
func WithPassphrase(passphrase string) FileStoreOption {
	return func(fs *FileStore) {
		fs.passphrase = passphrase
	}
}

// NewFileStore creates a Store persisting under the given directory.
func NewFileStore(dir string, options ...FileStoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("[NewFileStore] dir is required")
	}
	fs := &FileStore{dir: dir}
	for _, opt := range options {
		opt(fs)
	}
	return fs, nil
}

var _ Store = (*FileStore)(nil)

func (fs *FileStore) path() string {
	return filepath.Join(fs.dir, storageKey)
}

// Load reads the persisted session. A missing file, an unreadable record,
// or one sealed under a different passphrase all read as absence.
func (fs *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(fs.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[FileStore.Load] read")
	}
	if fs.passphrase != "" {
		if data, err = fs.unseal(data); err != nil {
			return nil, nil
		}
	}
	s, err := Decode(data)
	if err != nil {
		return nil, nil
	}
	return s, nil
}

// Save writes the session record, replacing any previous one.
func (fs *FileStore) Save(s *Session) error {
	data, err := Encode(s)
	if err != nil {
		return errors.Wrap(err, "[FileStore.Save] encode")
	}
	if fs.passphrase != "" {
		if data, err = fs.seal(data); err != nil {
			return errors.Wrap(err, "[FileStore.Save] seal")
		}
	}
	if err := os.MkdirAll(fs.dir, 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.Save] mkdir")
	}
	if err := os.WriteFile(fs.path(), data, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Save] write")
	}
	return nil
}

// Clear removes the persisted session. Clearing an empty store is not an
// error.
func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove")
	}
	return nil
}

func (fs *FileStore) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "salt")
	}
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	key, err := fs.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	record := sealedRecord{
		Salt:  salt,
		Nonce: nonce[:],
		Data:  secretbox.Seal(nil, plaintext, &nonce, key),
	}
	return json.Marshal(record)
}

func (fs *FileStore) unseal(data []byte) ([]byte, error) {
	var record sealedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "unmarshal sealed record")
	}
	if len(record.Nonce) != nonceLength {
		return nil, errors.New("bad nonce length")
	}
	key, err := fs.deriveKey(record.Salt)
	if err != nil {
		return nil, err
	}
	var nonce [nonceLength]byte
	copy(nonce[:], record.Nonce)
	plaintext, ok := secretbox.Open(nil, record.Data, &nonce, key)
	if !ok {
		return nil, errors.New("unseal failed")
	}
	return plaintext, nil
}

func (fs *FileStore) deriveKey(salt []byte) (*[keyLength]byte, error) {
	derived, err := scrypt.Key([]byte(fs.passphrase), salt, 1<<15, 8, 1, keyLength)
	if err != nil {
		return nil, errors.Wrap(err, "scrypt")
	}
	var key [keyLength]byte
	copy(key[:], derived)
	return &key, nil
}
