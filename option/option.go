// Package option decodes zipp command-line options.
//
// Every option has a short name made of a dash and the first letter of its long name, and a long name made of two
// dashes and its lower-case name. Single-dash options may be collapsed, so "-rp" is the same as "-r -p".
package option

import (
	"fmt"
	"strings"
)

// Option is one of the recognised zipp options.
type Option int

const (
	// Parallel requests that all files be added to the archive concurrently.
	Parallel Option = iota
	// Recursive requests that directories be traversed and all regular files found be added individually, with
	// their paths preserved.
	Recursive
	// Test prints timings of the add and close phases.
	Test
	// Generate creates a number of temporary files that are added to the archive instead of the file arguments.
	Generate
)

// names is indexed by Option.
var names = [...]string{"parallel", "recursive", "test", "generate"}

// byName maps both short and long names to their Option.
var byName = func() map[string]Option {
	m := make(map[string]Option, 2*len(names))
	for i := range names {
		o := Option(i)
		m[o.Short()] = o
		m[o.Long()] = o
	}
	return m
}()

// Values returns all options in declaration order.
func Values() []Option {
	return []Option{Parallel, Recursive, Test, Generate}
}

// Short returns the short name, e.g. "-p".
func (o Option) Short() string {
	return "-" + names[o][:1]
}

// Long returns the long name, e.g. "--parallel".
func (o Option) Long() string {
	return "--" + names[o]
}

func (o Option) String() string {
	if o < 0 || int(o) >= len(names) {
		return fmt.Sprintf("Option(%d)", int(o))
	}

	return strings.ToUpper(names[o])
}

// IllegalOptionError is returned by Parse and Decode when an option name is not recognised.
type IllegalOptionError struct {
	Name string
}

func (e *IllegalOptionError) Error() string {
	return fmt.Sprintf("unrecognised option '%s'", e.Name)
}

// Parse returns the Option with the given short or long name.
func Parse(name string) (Option, error) {
	if o, ok := byName[name]; ok {
		return o, nil
	}

	return 0, &IllegalOptionError{Name: name}
}

// Explode splits a collapsed single-dash argument into its single-character options.
//
// Double-dash arguments are returned as-is. For example "-rp" becomes ["-r", "-p"] while "--parallel" stays
// ["--parallel"].
func Explode(arg string) []string {
	if strings.HasPrefix(arg, "--") {
		return []string{arg}
	}

	s := strings.TrimPrefix(arg, "-")
	if s == "" {
		return []string{arg}
	}

	out := make([]string, 0, len(s))
	for _, c := range s {
		out = append(out, "-"+string(c))
	}
	return out
}

// Decode explodes and parses every argument into a Set.
func Decode(args []string) (Set, error) {
	var s Set
	for _, arg := range args {
		for _, name := range Explode(arg) {
			o, err := Parse(name)
			if err != nil {
				return 0, err
			}

			s = s.With(o)
		}
	}

	return s, nil
}

// Syntax returns the usage syntax of all options, e.g. "[-p|--parallel] [-r|--recursive] ...".
func Syntax() string {
	parts := make([]string, 0, len(names))
	for _, o := range Values() {
		parts = append(parts, fmt.Sprintf("[%s|%s]", o.Short(), o.Long()))
	}
	return strings.Join(parts, " ")
}
