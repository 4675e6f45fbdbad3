package twitterauth

import "errors"

// ErrorKind classifies connection-flow failures so callers can decide between
// operator-visible configuration problems and user-visible flow errors.
type ErrorKind string

const (
	KindAuthenticationRequired    ErrorKind = "authentication_required"
	KindProviderUnreachable       ErrorKind = "provider_unreachable"
	KindProviderRejected          ErrorKind = "provider_rejected"
	KindMalformedProviderResponse ErrorKind = "malformed_provider_response"
	KindMissingOAuthParameters    ErrorKind = "missing_oauth_parameters"
	KindSessionNotFound           ErrorKind = "session_not_found"
	KindStateMismatch             ErrorKind = "state_mismatch"
	KindIncompleteTokenResponse   ErrorKind = "incomplete_token_response"
	KindIdentityLookupFailed      ErrorKind = "identity_lookup_failed"
	KindCredentialsNotConfigured  ErrorKind = "credentials_not_configured"
)

// Error is the structured failure value returned across the flow boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the ErrorKind from err, or empty string for foreign errors.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsConfigError reports whether err is fatal misconfiguration rather than a
// transient flow failure the user can retry by re-initiating.
func IsConfigError(err error) bool {
	return KindOf(err) == KindCredentialsNotConfigured
}
