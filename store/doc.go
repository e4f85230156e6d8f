// Package store provides DynamoDB-backed bounded way counters with
// runtime key-schema discovery.
//
// The table's primary-key shape is not hard-coded. On first use the store
// describes the table, caches the partition/sort attribute names and types
// for the process lifetime, and maps loosely-specified client identifiers
// (key, wayId, id) onto that shape. If the external schema changes, the
// process must be restarted.
//
// # Counters
//
// Each item is one counter with the logical attributes wayId (number),
// key (string, conventionally "way-<wayId>"), label and value. The value
// invariant 0 <= value <= Config.MaxValue is enforced by conditional
// atomic updates; there is no read-modify-write window in the caller, so
// concurrent deltas against the same counter interleave safely.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrSchemaUnavailable] - table metadata could not be fetched
//   - [ErrInvalidDelta] - delta outside the accepted set
//   - [ErrKeyUnresolved] - no client identifier matched the key schema
//   - [ErrAtCeiling] - increment rejected, counter at MaxValue
//   - [ErrAtFloor] - decrement rejected, counter at zero
//
// Ceiling and floor rejections are expected business outcomes, not store
// failures, and are never retried.
package store
