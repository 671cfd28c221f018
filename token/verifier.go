package token

import (
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// requiredRole is the role claim the backend mints into end-user access
// tokens. Anonymous and service-role tokens carry a different role and must
// not be adopted as a user session.
const requiredRole = "authenticated"

var (
	UndecodableTokenErr = errors.New("token claims cannot be decoded")
	IssuerMismatchErr   = errors.New("token issued by a different host")
	RoleMismatchErr     = errors.New("token role is not authenticated")
	AudienceMismatchErr = errors.New("token audience is not authenticated")
)

// Verifier checks that an access token was minted by the backend project
// this build is configured against, guarding against stale credentials from
// another environment being adopted as a live session.
//
// The verifier reads claims without checking the token signature. That is a
// deliberate tradeoff: every token it sees was just issued by a call to the
// very backend it is compared against, not presented by an untrusted third
// party. If tokens ever arrive from elsewhere, signature verification has
// to be added here.
type Verifier struct {
	expectedHost string
	parser       *jwtlib.Parser
}

// NewVerifier creates a Verifier for the given expected tenant host. With
// an empty host (no backend configured) every token verifies, since there
// is nothing concrete to compare against.
func NewVerifier(expectedHost string) *Verifier {
	return &Verifier{
		expectedHost: strings.ToLower(strings.TrimSpace(expectedHost)),
		parser:       jwtlib.NewParser(jwtlib.WithoutClaimsValidation(), jwtlib.WithPaddingAllowed()),
	}
}

// Verify returns nil when the token belongs to the expected tenant, or one
// of the sentinel errors above describing the first failed check.
func (v *Verifier) Verify(accessToken string) error {
	if v.expectedHost == "" {
		return nil
	}

	unverified, _, err := v.parser.ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return errors.Wrap(UndecodableTokenErr, err.Error())
	}
	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return UndecodableTokenErr
	}

	issuer, _ := claims["iss"].(string)
	if !strings.Contains(strings.ToLower(issuer), v.expectedHost) {
		return IssuerMismatchErr
	}

	role, _ := claims["role"].(string)
	if role != requiredRole {
		return RoleMismatchErr
	}

	// aud may be absent, a single string, or a string array.
	switch aud := claims["aud"].(type) {
	case nil:
	case string:
		if aud != "" && aud != requiredRole {
			return AudienceMismatchErr
		}
	case []any:
		if len(aud) > 0 && !containsString(aud, requiredRole) {
			return AudienceMismatchErr
		}
	default:
		return AudienceMismatchErr
	}

	return nil
}

// Compatible reports whether the token passes all tenant checks.
func (v *Verifier) Compatible(accessToken string) bool {
	return v.Verify(accessToken) == nil
}

func containsString(values []any, want string) bool {
	for _, value := range values {
		if s, ok := value.(string); ok && s == want {
			return true
		}
	}
	return false
}
