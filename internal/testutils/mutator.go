package testutils

// NewMutator wraps a base fixture so each test can tweak a fresh copy.
func NewMutator[T any](base func() T) func(func(*T)) T {
	return func(m func(*T)) T {
		v := base()
		if m != nil {
			m(&v)
		}

		return v
	}
}
