package misp

import "errors"

// Sentinel errors returned by the element model. Callers match them with
// errors.Is; wrapped messages carry the field or operation that failed.
var (
	// ErrKeyNotFound is returned when reading or deleting a field the
	// element does not currently hold.
	ErrKeyNotFound = errors.New("field not found")

	// ErrInvalidArgument is returned when a value does not fit the
	// contract of the field it is assigned to (e.g. a non-bool edited
	// flag, or a scalar where a nested element is declared).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrParse is returned when a JSON document cannot be decoded.
	ErrParse = errors.New("malformed json")

	// ErrSerialization is returned when a field holds a value that has no
	// JSON representation and is not an element itself.
	ErrSerialization = errors.New("value cannot be serialized")
)
