package utils

// Ptr returns a pointer to v. Options use it to tell an explicit zero apart
// from an unset value.
func Ptr[T any](v T) *T {
	return &v
}
