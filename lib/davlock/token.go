package davlock

import (
	"fmt"
	"github.com/google/uuid"
)

// tokenScheme is the URI scheme used for lock tokens (RFC 4918 section 6.5)
const tokenScheme = "urn:uuid:"

// newToken generates a new lock token from a random (version 4) uuid.
// Tokens are unique across restarts and processes without any coordination.
func newToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("davlock: generating lock token: %w", err)
	}
	return tokenScheme + id.String(), nil
}
