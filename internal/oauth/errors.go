package oauth

import "fmt"

// ErrMissingHostConfig is returned by BeginAuth when the config has no host to
// build the redirect URI from.
type ErrMissingHostConfig struct{}

func (ErrMissingHostConfig) Error() string {
	return "app host is not configured, cannot build redirect URI"
}

// ErrNotEmbeddedApp is returned when a token-exchange flow is attempted with a
// non-embedded app config.
type ErrNotEmbeddedApp struct{}

func (ErrNotEmbeddedApp) Error() string {
	return "token exchange is only available to embedded apps"
}

// ErrNotPrivateApp is returned when the client-credentials grant is attempted
// with an embedded app config.
type ErrNotPrivateApp struct{}

func (ErrNotPrivateApp) Error() string {
	return "client credentials grant is only available to non-embedded apps"
}

// ErrInvalidHmac signals that a callback or webhook signature did not verify
// against any configured secret.
type ErrInvalidHmac struct{}

func (ErrInvalidHmac) Error() string {
	return "hmac signature did not match"
}

// ErrStateMismatch signals a CSRF state value that differs from the one issued
// at the start of the flow.
type ErrStateMismatch struct {
	Expected string
	Received string
}

func (e ErrStateMismatch) Error() string {
	return fmt.Sprintf("oauth state mismatch: expected %q, received %q", e.Expected, e.Received)
}

// ErrInvalidJwt signals a session token that failed decoding or claim checks.
type ErrInvalidJwt struct {
	Reason string
}

func (e ErrInvalidJwt) Error() string {
	return fmt.Sprintf("invalid session token: %s", e.Reason)
}

// ErrInvalidCallback signals a malformed callback payload, such as an invalid
// shop domain.
type ErrInvalidCallback struct {
	Reason string
}

func (e ErrInvalidCallback) Error() string {
	return fmt.Sprintf("invalid oauth callback: %s", e.Reason)
}

// ErrTokenExchangeFailed carries the remote response to a failed code or
// token exchange. Status 0 means the request never got a response.
type ErrTokenExchangeFailed struct {
	Status  int
	Message string
}

func (e ErrTokenExchangeFailed) Error() string {
	return fmt.Sprintf("token exchange failed (status %d): %s", e.Status, e.Message)
}

// ErrClientCredentialsFailed carries the remote response to a failed client
// credentials grant. Status 0 means the request never got a response.
type ErrClientCredentialsFailed struct {
	Status  int
	Message string
}

func (e ErrClientCredentialsFailed) Error() string {
	return fmt.Sprintf("client credentials grant failed (status %d): %s", e.Status, e.Message)
}

// ErrTokenRefreshFailed carries the remote response to a failed refresh or
// migration. Status 0 means the request never got a response.
type ErrTokenRefreshFailed struct {
	Status  int
	Message string
}

func (e ErrTokenRefreshFailed) Error() string {
	return fmt.Sprintf("token refresh failed (status %d): %s", e.Status, e.Message)
}
