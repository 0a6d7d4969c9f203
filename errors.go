package zipp

import (
	"errors"
	"fmt"
)

// ErrSymlinkLoop is wrapped by TraversalError when following symbolic links leads back to an ancestor directory.
var ErrSymlinkLoop = errors.New("symbolic link loop")

// TraversalError is returned by Resolve when a directory cannot be traversed.
//
// Dir is the directory whose traversal failed, which may be a descendant of the directory that was given to Resolve.
type TraversalError struct {
	Dir string
	Err error
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf(`traverse directory "%s" error: %v`, e.Dir, e.Err)
}

// ArchiveError is returned by Builder.AddFiles and Builder.Add when the archive itself is unusable.
//
// Unlike failures to read individual files, an ArchiveError aborts the build.
type ArchiveError struct {
	Source string
	Err    error
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf(`access zip archive for "%s" error: %v`, e.Source, e.Err)
}
