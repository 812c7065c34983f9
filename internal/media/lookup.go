package media

// Status classifies the outcome of a leaf lookup.
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Lookup is the result of a leaf client call. Err is only set for StatusFailed.
type Lookup[T any] struct {
	Value  T
	Status Status
	Err    error
}

// Found wraps a successful value.
func Found[T any](value T) Lookup[T] {
	return Lookup[T]{Value: value, Status: StatusFound}
}

// NotFound reports a valid empty answer from upstream.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Status: StatusNotFound}
}

// Failed reports a transport, HTTP, or decoding failure.
func Failed[T any](err error) Lookup[T] {
	return Lookup[T]{Status: StatusFailed, Err: err}
}

// OK reports whether the lookup produced a value.
func (l Lookup[T]) OK() bool {
	return l.Status == StatusFound
}
