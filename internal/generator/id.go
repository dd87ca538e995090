package generator

import (
	"github.com/google/uuid"
)

// NewID returns a random (version 4) UUID in canonical form.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether id is a canonical UUID string.
func IsValidID(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.String() == id
}
