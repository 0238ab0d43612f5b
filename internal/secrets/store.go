// Package secrets abstracts the credential store. Credentials are bearer
// tokens keyed by repository URL; the sync layer never sees where they live.
package secrets

import "errors"

// ErrNotFound is returned when no credential exists for a key. Callers treat
// it as a warning, not a failure: public repositories work without one.
var ErrNotFound = errors.New("no credential stored for key")

// Store persists bearer credentials keyed by repository identity.
type Store interface {
	Get(key string) (string, error)
	Set(key, secret string) error
	Delete(key string) error
}
