package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// defaultTimeout bounds every backend call so a hung request cannot leave
// the session manager stuck in a loading state indefinitely.
const defaultTimeout = 30 * time.Second

// Client speaks the backend's password-grant + refresh-token auth protocol.
// All endpoints live under {base}/auth/v1/ and authenticate with the public
// anon key; only sign-out additionally bears the user's access token.
type Client struct {
	config     Config
	endpoint   *url.URL // {base}/auth/v1/
	httpClient *http.Client
	log        zerolog.Logger
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the client logger. The default discards everything.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// NewClient initializes a Client for the configured backend.
func NewClient(config Config, options ...ClientOption) (*Client, error) {
	if !config.Configured() {
		return nil, NotConfiguredErr
	}
	endpoint, err := url.Parse(strings.TrimRight(strings.TrimSpace(config.BaseURL), "/") + "/auth/v1/")
	if err != nil {
		return nil, errors.Wrap(InvalidResponseErr, err.Error())
	}

	client := &Client{
		config:     config,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zerolog.Nop(),
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// credentialsRequest is the body for sign-in and sign-up.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the body for the refresh-token grant.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// sessionEnvelope is the backend's token response payload, shared by
// sign-in, sign-up and refresh.
type sessionEnvelope struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *envelopeUser `json:"user"`
}

type envelopeUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// errorEnvelope covers the error body shapes the backend uses.
type errorEnvelope struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

// SignUpResult is the outcome of SignUp. A nil Session means the account
// was created but email verification is still pending.
type SignUpResult struct {
	Session *session.Session
	Email   string
}

// SignIn exchanges credentials for a session via the password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	body, err := c.post(ctx, "token?grant_type=password", c.config.AnonKey, credentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignIn]")
	}
	return c.decodeSession(body)
}

// SignUp registers a new account. The backend either auto-confirms it and
// returns a session, or returns a user-only envelope while a verification
// email is in flight.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	body, err := c.post(ctx, "signup", c.config.AnonKey, credentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignUp]")
	}

	var envelope sessionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(InvalidResponseErr, err.Error())
	}

	result := &SignUpResult{Email: email}
	if envelope.User != nil && envelope.User.Email != "" {
		result.Email = envelope.User.Email
	}
	// Absence of an access token signals pending email verification.
	if envelope.AccessToken != "" {
		result.Session = envelope.session(c.nowTime())
	}
	return result, nil
}

// SignOut revokes the session remotely. Callers must treat a failure here
// as non-fatal: local state is cleared regardless of the outcome.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if _, err := c.post(ctx, "logout", accessToken, nil); err != nil {
		return errors.Wrap(err, "[Client.SignOut]")
	}
	return nil
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	body, err := c.post(ctx, "token?grant_type=refresh_token", c.config.AnonKey, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.RefreshSession]")
	}
	return c.decodeSession(body)
}

func (c *Client) decodeSession(body []byte) (*session.Session, error) {
	var envelope sessionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(InvalidResponseErr, err.Error())
	}
	if envelope.AccessToken == "" {
		return nil, errors.Wrap(InvalidResponseErr, "payload has no access token")
	}
	return envelope.session(c.nowTime()), nil
}

// session builds the immutable session value from a token envelope,
// computing an absolute expiry from expires_in when the backend only
// supplies a relative lifetime.
func (e sessionEnvelope) session(now time.Time) *session.Session {
	s := &session.Session{
		AccessToken:  e.AccessToken,
		RefreshToken: e.RefreshToken,
		TokenType:    e.TokenType,
	}
	switch {
	case e.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(e.ExpiresAt, 0)
	case e.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(e.ExpiresIn) * time.Second)
	}
	if e.User != nil {
		s.UserID = e.User.ID
		s.UserEmail = e.User.Email
	}
	return s
}

// post issues a request to {base}/auth/v1/{path} and returns the response
// body on any 2xx status. bearer goes into the Authorization header - the
// anon key for every operation except sign-out, which bears the user's
// access token.
func (c *Client) post(ctx context.Context, path, bearer string, body any) ([]byte, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String()+path, payload)
	if err != nil {
		return nil, errors.Wrap(InvalidResponseErr, err.Error())
	}
	req.Header.Set("apikey", c.config.AnonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	c.log.Debug().Str("path", path).Msg("auth backend request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "auth backend request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		failure := &RequestFailedError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Str("message", failure.Message).Msg("auth backend request failed")
		return nil, failure
	}
	return data, nil
}

// errorMessage extracts a human-readable message from a failure body,
// falling back to the raw body text and finally the HTTP status text.
func errorMessage(status int, body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.ErrorDescription != "":
			return envelope.ErrorDescription
		case envelope.Msg != "":
			return envelope.Msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
