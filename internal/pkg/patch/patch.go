package patch

// Coalesce applies an optional field of a partial update: a nil pointer
// keeps current.
func Coalesce[T any](next *T, current T) T {
	if next != nil {
		return *next
	}
	return current
}
