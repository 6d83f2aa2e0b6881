package vpath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier marks a virtual-path identifier that failed
// validation. It is always fatal for the request in which it occurs.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const scheme = "://"

// Check is a validator applied to a decoded identifier.
type Check func(string) bool

// Encode returns the single-part virtual path "{provider}://{id}".
func Encode(provider, id string) string {
	return provider + scheme + id
}

// EncodePair returns the two-part virtual path
// "{provider}://{projectID}/{sessionID}".
func EncodePair(provider, projectID, sessionID string) string {
	return provider + scheme + projectID + "/" + sessionID
}

// strip removes the provider's scheme prefix, tolerating callers that pass
// an already-bare identifier.
func strip(provider, path string) string {
	return strings.TrimPrefix(path, provider+scheme)
}

// DecodeID recovers the identifier from a single-part virtual path and
// validates it with check. A failed check returns an ErrInvalidIdentifier
// error; the id must not be used afterwards.
func DecodeID(provider, path string, check Check) (string, error) {
	id := strip(provider, path)
	if !check(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return id, nil
}

// DecodePair recovers both identifiers from a two-part virtual path,
// splitting on the first '/' and validating each part with its check.
func DecodePair(provider, path string, projectCheck, sessionCheck Check) (string, string, error) {
	rest := strip(provider, path)
	projectID, sessionID, found := strings.Cut(rest, "/")
	if !found {
		return "", "", fmt.Errorf("%w: %q is not a project/session path", ErrInvalidIdentifier, path)
	}
	if !projectCheck(projectID) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, projectID)
	}
	if !sessionCheck(sessionID) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, sessionID)
	}
	return projectID, sessionID, nil
}
