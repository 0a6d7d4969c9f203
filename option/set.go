package option

import "strings"

// Set is an immutable set of options.
//
// The zero value is the empty set.
type Set uint8

// Of returns the Set containing the given options.
func Of(opts ...Option) (s Set) {
	for _, o := range opts {
		s = s.With(o)
	}
	return
}

// With returns a new Set that also contains o.
func (s Set) With(o Option) Set {
	return s | 1<<uint(o)
}

// Union returns a new Set containing options from both sets.
func (s Set) Union(other Set) Set {
	return s | other
}

// Has returns true if the set contains o.
func (s Set) Has(o Option) bool {
	return s&(1<<uint(o)) != 0
}

// Options returns the options in the set in declaration order.
func (s Set) Options() []Option {
	var opts []Option
	for _, o := range Values() {
		if s.Has(o) {
			opts = append(opts, o)
		}
	}
	return opts
}

func (s Set) String() string {
	opts := s.Options()
	parts := make([]string, len(opts))
	for i, o := range opts {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
