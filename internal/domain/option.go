package domain

// Option is a value that may be absent. Streams of Option use the absent
// value as an explicit end-of-stream marker.
type Option[T any] struct {
	Exists bool
	Some   T
}

func Some[T any](some T) (opt Option[T]) {
	opt.Exists = true
	opt.Some = some
	return
}

func None[T any]() (opt Option[T]) {
	return
}
