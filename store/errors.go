package store

import "errors"

var (
	// ErrSchemaUnavailable is returned when the table's key schema cannot be
	// described. No key resolution or update may proceed without it.
	ErrSchemaUnavailable = errors.New("waytally: table schema unavailable")

	// ErrInvalidDelta is returned for a delta outside the accepted set.
	ErrInvalidDelta = errors.New("waytally: delta must be a non-zero integer")

	// ErrKeyUnresolved is returned when none of the supplied identifiers
	// (key, wayId, id) can be mapped onto the table's key schema.
	ErrKeyUnresolved = errors.New("waytally: no identifier matched the table key schema")

	// ErrAtCeiling is returned when an increment is rejected because the
	// counter is already at its maximum.
	ErrAtCeiling = errors.New("waytally: counter is at its maximum")

	// ErrAtFloor is returned when a decrement is rejected because the
	// counter is already at zero.
	ErrAtFloor = errors.New("waytally: counter is at zero")
)
