package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/session"
	"github.com/stretchr/testify/require"
)

func testSession() *session.Session {
	return &session.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Unix(1790000000, 0),
		UserEmail:    "john.doe@example.com",
		UserID:       "user-1",
	}
}

func TestFileStoreSaveLoadClear(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded, "empty store loads as absent")

	require.NoError(t, store.Save(testSession()))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "access", loaded.AccessToken)
	require.Equal(t, "refresh", loaded.RefreshToken)
	require.True(t, loaded.ExpiresAt.Equal(time.Unix(1790000000, 0)))

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)

	// Clearing an already-empty store is not an error.
	require.NoError(t, store.Clear())
}

func TestFileStoreCorruptRecordReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(testSession()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("corrupt"), 0o600))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, loaded, "corrupt record is absence, not an error")
}

func TestFileStoreVersionedStorageKey(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(testSession()))

	_, err = os.Stat(filepath.Join(dir, "auth-session.v1.json"))
	require.NoError(t, err)
}

func TestFileStoreEncryptedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir, session.WithPassphrase("correct horse"))
	require.NoError(t, err)

	require.NoError(t, store.Save(testSession()))

	// The record on disk must not contain the token in the clear.
	data, err := os.ReadFile(filepath.Join(dir, "auth-session.v1.json"))
	require.NoError(t, err)
	require.NotContains(t, string(data), "access_token")

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "access", loaded.AccessToken)
}

func TestFileStoreWrongPassphraseReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir, session.WithPassphrase("correct horse"))
	require.NoError(t, err)
	require.NoError(t, store.Save(testSession()))

	reopened, err := session.NewFileStore(dir, session.WithPassphrase("battery staple"))
	require.NoError(t, err)

	loaded, err := reopened.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	_, err := session.NewFileStore("")
	require.Error(t, err)
}
