package common

// FirstOr returns the first element of s, or fallback when s is empty.
func FirstOr[S ~[]E, E any](s S, fallback E) E {
	if len(s) == 0 {
		return fallback
	}

	return s[0]
}
