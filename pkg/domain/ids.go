package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// JobID identifies a verification job. It is a domain primitive: construct
// via NewJobID or ParseJobID so invalid identifiers cannot cross the trust
// boundary as typed values.
type JobID uuid.UUID

// NewJobID returns a fresh random job identifier.
func NewJobID() JobID {
	return JobID(uuid.New())
}

// ParseJobID validates and returns a JobID from external input.
//
// Usage: call from handlers when parsing path parameters; direct casting
// bypasses validation.
func ParseJobID(s string) (JobID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return JobID{}, fmt.Errorf("invalid job id: %w", err)
	}
	return JobID(u), nil
}

// String returns the canonical string form.
func (id JobID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the identifier is the zero value.
func (id JobID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
