package session

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// persistedSession is the durable JSON encoding of a Session. Field names
// match the backend's token envelope so a persisted record reads the same
// way as the wire payload it was built from. Optional fields are omitted
// when absent so that absence round-trips.
type persistedSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // epoch seconds
	UserEmail    string `json:"email,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

// Encode serializes a Session into its persisted JSON form.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("[session.Encode] nil session")
	}
	record := persistedSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		UserEmail:    s.UserEmail,
		UserID:       s.UserID,
	}
	if !s.ExpiresAt.IsZero() {
		record.ExpiresAt = s.ExpiresAt.Unix()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "[session.Encode] marshal")
	}
	return data, nil
}

// Decode parses a persisted JSON record back into a Session. A record
// without an access token is not a session.
func Decode(data []byte) (*Session, error) {
	var record persistedSession
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "[session.Decode] unmarshal")
	}
	if record.AccessToken == "" {
		return nil, errors.New("[session.Decode] record has no access token")
	}
	s := &Session{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		TokenType:    record.TokenType,
		UserEmail:    record.UserEmail,
		UserID:       record.UserID,
	}
	if record.ExpiresAt != 0 {
		s.ExpiresAt = time.Unix(record.ExpiresAt, 0)
	}
	return s, nil
}
