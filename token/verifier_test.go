package token_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-auth-client/token"
	"github.com/stretchr/testify/require"
)

const expectedHost = "proj.example.co"

// makeToken builds an unsigned JWT carrying the given claims. The verifier
// never checks signatures, so the signature segment is arbitrary.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]any{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + ".c2lnbmF0dXJl"
}

func compatibleClaims() map[string]any {
	return map[string]any{
		"iss":  "https://proj.example.co/auth/v1",
		"role": "authenticated",
		"aud":  "authenticated",
	}
}

func TestVerifyCompatibleToken(t *testing.T) {
	v := token.NewVerifier(expectedHost)
	require.NoError(t, v.Verify(makeToken(t, compatibleClaims())))
}

func TestVerifyIssuerMismatchRejectedRegardlessOfRole(t *testing.T) {
	v := token.NewVerifier(expectedHost)

	claims := compatibleClaims()
	claims["iss"] = "https://other.example.co/auth/v1"
	require.ErrorIs(t, v.Verify(makeToken(t, claims)), token.IssuerMismatchErr)
}

func TestVerifyIssuerSubstringMatchToleratesPaths(t *testing.T) {
	v := token.NewVerifier(expectedHost)

	claims := compatibleClaims()
	claims["iss"] = "HTTPS://PROJ.EXAMPLE.CO/auth/v1/extra"
	require.NoError(t, v.Verify(makeToken(t, claims)))
}

func TestVerifyRoleMismatchRejectedWithMatchingIssuer(t *testing.T) {
	v := token.NewVerifier(expectedHost)

	for _, role := range []string{"anon", "service_role", ""} {
		claims := compatibleClaims()
		if role == "" {
			delete(claims, "role")
		} else {
			claims["role"] = role
		}
		require.ErrorIs(t, v.Verify(makeToken(t, claims)), token.RoleMismatchErr, "role %q", role)
	}
}

func TestVerifyAudience(t *testing.T) {
	v := token.NewVerifier(expectedHost)

	claims := compatibleClaims()
	claims["aud"] = "other-audience"
	require.ErrorIs(t, v.Verify(makeToken(t, claims)), token.AudienceMismatchErr)

	claims = compatibleClaims()
	delete(claims, "aud")
	require.NoError(t, v.Verify(makeToken(t, claims)), "absent aud is accepted")

	claims = compatibleClaims()
	claims["aud"] = ""
	require.NoError(t, v.Verify(makeToken(t, claims)), "empty aud is accepted")

	claims = compatibleClaims()
	claims["aud"] = []string{"authenticated"}
	require.NoError(t, v.Verify(makeToken(t, claims)), "aud list containing authenticated is accepted")

	claims = compatibleClaims()
	claims["aud"] = []string{"other"}
	require.ErrorIs(t, v.Verify(makeToken(t, claims)), token.AudienceMismatchErr)
}

func TestVerifyUndecodableToken(t *testing.T) {
	v := token.NewVerifier(expectedHost)

	for _, raw := range []string{"", "not-a-jwt", "a.b", "a.!!!.c"} {
		require.ErrorIs(t, v.Verify(raw), token.UndecodableTokenErr, "token %q", raw)
	}
}

func TestVerifyUnknownHostAcceptsEverything(t *testing.T) {
	v := token.NewVerifier("")

	require.NoError(t, v.Verify("anything-at-all"))
	claims := compatibleClaims()
	claims["iss"] = "https://somewhere.else"
	claims["role"] = "anon"
	require.NoError(t, v.Verify(makeToken(t, claims)))
}
