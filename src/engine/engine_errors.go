package engine

// Add custom error definitions here
import "errors"

// ErrInvalidShape is returned when a payload is malformed, including an
// account populating both or neither of its variant field groups.
var ErrInvalidShape = errors.New("invalid entity shape")

// ErrConstraintViolated is returned when a numeric bound or uniqueness
// constraint does not hold.
var ErrConstraintViolated = errors.New("constraint violated")

// ErrDanglingReference is returned when a foreign key points at a record
// that does not exist.
var ErrDanglingReference = errors.New("dangling reference")

// ErrReferencedByDependents is returned when a restrict-delete is blocked
// by existing dependents.
var ErrReferencedByDependents = errors.New("referenced by dependents")

var ErrNotFound = errors.New("not found")
