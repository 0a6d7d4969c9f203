package zipp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/nguyengg/zipp/message"
	"github.com/nguyengg/zipp/zipfs"
)

// Add adds or replaces the entry for the regular file with the given path.
//
// The entry's name is computed by zipfs.EntryName so the directory structure of path is preserved; missing parent
// directory entries are created. If the file cannot be read, the failure is logged and returned in Outcome.Err with a
// nil error. A non-nil error means the archive itself is unusable (an *ArchiveError) or ctx is done.
func (b *Builder) Add(ctx context.Context, path string) (Outcome, error) {
	name := zipfs.EntryName(path)
	o := Outcome{Source: path, Name: name, Action: ActionAdd}
	if name == "" {
		return b.fail(o, fmt.Errorf(`"%s" has no valid entry name`, path)), nil
	}

	src, err := open(path)
	if err != nil {
		return b.fail(o, err), nil
	}
	defer src.Close()

	// parent directories are only created once the file is known to be readable.
	if err = b.fs.MkdirAll(parent(name)); err != nil {
		return o, &ArchiveError{Source: path, Err: err}
	}

	if b.fs.Exists(name) {
		if err = b.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return o, &ArchiveError{Source: path, Err: err}
		}

		o.Action = ActionUpdate
	}

	if err = b.write(ctx, src, name); err != nil {
		if ctx.Err() != nil {
			return o, ctx.Err()
		}
		if errors.Is(err, zipfs.ErrClosed) || errors.Is(err, zipfs.ErrIsDir) {
			return o, &ArchiveError{Source: path, Err: err}
		}

		return b.fail(o, err), nil
	}

	fi, err := b.fs.Stat(name)
	if err != nil {
		return o, &ArchiveError{Source: path, Err: err}
	}

	o.Size = fi.Size
	o.CompressedSize = fi.CompressedSize
	o.Method = fi.Method
	o.Kind = KindOf(fi.Method)
	o.Ratio = Ratio(fi.Size, fi.CompressedSize)

	b.opts.Logger.Print(b.line(o))
	return o, nil
}

// open opens the regular file with the given path for reading.
func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if fi, err := f.Stat(); err != nil {
		_ = f.Close()
		return nil, err
	} else if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf(`"%s" is not a regular file`, path)
	}

	return f, nil
}

// write copies the file's content into a new entry, discarding the entry on any failure.
func (b *Builder) write(ctx context.Context, src *os.File, name string) error {
	fi, err := src.Stat()
	if err != nil {
		return err
	}

	w, err := b.fs.Create(name, fi)
	if err != nil {
		return err
	}

	if _, err = copyContext(ctx, w, src); err != nil {
		w.Abort()
		return fmt.Errorf(`read file "%s" error: %w`, src.Name(), err)
	}

	return w.Close()
}

func (b *Builder) fail(o Outcome, err error) Outcome {
	o.Err = err
	b.opts.ErrorLogger.Print(b.opts.Catalog.Sprintf(message.ErrAdding, o.Source, err))
	return o
}

// line formats the log line of a successfully added file, e.g. "  adding: dir/a.txt (deflated 57%)".
func (b *Builder) line(o Outcome) string {
	c := b.opts.Catalog

	action := c.Lookup(message.Adding)
	if o.Action == ActionUpdate {
		action = c.Lookup(message.Updating)
	}

	return fmt.Sprintf("  %s: %s (%s %.0f%%)", action, o.Source, c.Lookup(o.Kind.key()), o.Ratio)
}

// parent returns the parent directory of a clean slash-separated entry name, "." if there is none.
func parent(name string) string {
	return path.Dir(name)
}
