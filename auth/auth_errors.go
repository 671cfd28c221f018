package auth

import "errors"

var (
	NotConfiguredErr       = errors.New("no auth backend configured")
	BlankCredentialsErr    = errors.New("email and password are required")
	IncompatibleSessionErr = errors.New("session belongs to a different project")
	NoSessionErr           = errors.New("no authenticated session")
)

// User-visible messages carried by the Error state.
const (
	blankCredentialsMessage    = "Email and password are required."
	incompatibleSessionMessage = "session belongs to a different project"
)
