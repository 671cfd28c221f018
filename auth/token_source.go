package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the Manager to oauth2.TokenSource so oauth2-aware
// HTTP stacks can consume the managed session. Each Token call goes through
// ValidAccessToken and may refresh.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m}
}

type managerTokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (ts *managerTokenSource) Token() (*oauth2.Token, error) {
	accessToken, ok := ts.manager.ValidAccessToken(ts.ctx)
	if !ok {
		return nil, NoSessionErr
	}
	tokenType := "bearer"
	if st := ts.manager.State(); st.Kind == StateSignedIn && st.Session != nil && st.Session.TokenType != "" {
		tokenType = st.Session.TokenType
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: tokenType}, nil
}
