package zipp

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// Resolve expands the given file and directory arguments into a deduplicated list of regular files.
//
// Regular files are returned as-is. Directories are skipped unless recursive is true, in which case they are
// traversed (following symbolic links) and every regular file within is returned. Arguments that are neither a
// regular file nor a directory (devices, missing files, dangling links) are skipped.
//
// Every path is cleaned with filepath.Clean and duplicates are removed so that the returned paths appear in the order
// they were first found. The only error returned is a *TraversalError, since a partial traversal would silently drop
// files from the archive.
func Resolve(ctx context.Context, specs []string, recursive bool) ([]string, error) {
	var (
		seen  = make(map[string]struct{})
		paths []string
	)

	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, spec := range specs {
		switch fi, err := os.Stat(spec); {
		case err != nil:
			continue
		case fi.Mode().IsRegular():
			add(spec)
		case fi.IsDir() && recursive:
			if err = walkRegularFiles(ctx, spec, nil, add); err != nil {
				return nil, err
			}
		}
	}

	return paths, nil
}

// walkRegularFiles is a variant of filepath.WalkDir that follows symbolic links and applies the callback only to
// regular files.
//
// ancestors contains the directories on the path from the root to dir, used to detect symbolic link loops.
func walkRegularFiles(ctx context.Context, dir string, ancestors []os.FileInfo, fn func(path string)) error {
	select {
	case <-ctx.Done():
		return &TraversalError{Dir: dir, Err: ctx.Err()}
	default:
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return &TraversalError{Dir: dir, Err: err}
	}
	for _, a := range ancestors {
		if os.SameFile(a, fi) {
			return &TraversalError{Dir: dir, Err: ErrSymlinkLoop}
		}
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		return &TraversalError{Dir: dir, Err: err}
	}

	ancestors = append(ancestors, fi)
	for _, d := range des {
		path := filepath.Join(dir, d.Name())

		mode := d.Type()
		if mode&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				return &TraversalError{Dir: dir, Err: err}
			}

			mode = target.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if err = walkRegularFiles(ctx, path, ancestors, fn); err != nil {
				return err
			}
		case mode.IsRegular():
			fn(path)
		}
	}

	return nil
}
