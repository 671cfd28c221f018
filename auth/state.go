package auth

import "github.com/jrsteele09/go-auth-client/session"

// StateKind discriminates the auth state union. Exactly one variant is
// active at a time and only the Manager transitions between them.
type StateKind int

const (
	// StateDisabled means no backend is configured; every auth operation
	// is a no-op. Terminal.
	StateDisabled StateKind = iota
	// StateSignedOut means no usable session exists.
	StateSignedOut
	// StateLoading means a restore or user-initiated backend call is in
	// flight.
	StateLoading
	// StateSignedIn means Session holds the active session.
	StateSignedIn
	// StatePendingVerification means an account was created for Email but
	// the backend is waiting on email confirmation.
	StatePendingVerification
	// StateError means a user-initiated operation failed with Message.
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateDisabled:
		return "disabled"
	case StateSignedOut:
		return "signed_out"
	case StateLoading:
		return "loading"
	case StateSignedIn:
		return "signed_in"
	case StatePendingVerification:
		return "pending_verification"
	case StateError:
		return "error"
	}
	return "unknown"
}

// State is the tagged auth state. The payload fields are only meaningful
// for the variant named in their comment.
type State struct {
	Kind    StateKind
	Session *session.Session // StateSignedIn
	Email   string           // StatePendingVerification
	Message string           // StateError
}

func disabledState() State {
	return State{Kind: StateDisabled}
}

func signedOutState() State {
	return State{Kind: StateSignedOut}
}

func loadingState() State {
	return State{Kind: StateLoading}
}

func signedInState(s *session.Session) State {
	return State{Kind: StateSignedIn, Session: s}
}

func pendingVerificationState(email string) State {
	return State{Kind: StatePendingVerification, Email: email}
}

func errorState(message string) State {
	return State{Kind: StateError, Message: message}
}
