package coerce

import (
	"reflect"
	"time"
)

// Input is the capability set every input representation implements so that
// converters above it never look at the concrete representation.
//
// Every As* method takes the coercion policy: strict accepts only the
// representation's native shape for the target, lax additionally accepts the
// documented widenings. Failures are LineErrors holding exactly one LineError
// with an empty location; callers prefix locations as the failure propagates.
type Input interface {
	IsNone() bool

	// ErrorValue returns the diagnostic view of this input.
	ErrorValue() InputValue
	// LocItem returns the location segment used when this input is itself a
	// mapping key.
	LocItem() LocItem

	AsString(strict bool) (string, error)
	AsBytes(strict bool) ([]byte, error)
	AsBool(strict bool) (bool, error)
	AsInt(strict bool) (int64, error)
	AsFloat(strict bool) (float64, error)

	AsMapping(strict bool) (Mapping, error)
	AsList(strict bool) (Sequence, error)
	AsTuple(strict bool) (Sequence, error)
	AsSet(strict bool) (Sequence, error)
	AsFrozenSet(strict bool) (Sequence, error)

	AsDate(strict bool) (Date, error)
	AsTime(strict bool) (TimeOfDay, error)
	AsDatetime(strict bool) (time.Time, error)
	AsTimedelta(strict bool) (time.Duration, error)
}

// Mapping is a read-only view of a mapping-shaped input. Views never copy the
// underlying container and are safe for concurrent reads.
type Mapping interface {
	Len() int
	// Get looks up a member by its string key.
	Get(key string) (Input, bool)
	// Range visits members in the representation's iteration order until fn
	// returns false.
	Range(fn func(key, value Input) bool)
}

// Sequence is a read-only, indexable view of a sequence-shaped input.
type Sequence interface {
	Len() int
	At(i int) Input
}

// Items collects every element of s.
func Items(s Sequence) []Input {
	out := make([]Input, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

// containerIdentity is implemented by inputs that can take part in reference
// cycles. The identity is stable for the lifetime of the container.
type containerIdentity interface {
	identity() (identityKey, bool)
}

type identityKey struct {
	ptr uintptr
	typ reflect.Type
	n   int
}
