// Package zipfs provides a mutable ZIP archive that entries can be added to, replaced, removed, and described before
// the archive is written to disk.
//
// The archive is modelled as a small file system: entries are addressed by slash-separated names, directories are
// explicit entries, and every method on FS is safe for concurrent use. Entry contents are compressed as they are
// written so that their compressed size and method are known immediately after the entry's writer is closed, long
// before FS.Close writes the central directory.
package zipfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/valyala/bytebufferpool"
)

var (
	// ErrClosed is returned by all FS methods after FS.Close has been called.
	ErrClosed = errors.New("zipfs: archive already closed")
	// ErrNotDir is returned by FS.MkdirAll when a file entry exists in place of a parent directory.
	ErrNotDir = errors.New("zipfs: not a directory")
	// ErrIsDir is returned by FS.Create and FS.Remove when the name refers to a directory entry.
	ErrIsDir = errors.New("zipfs: is a directory")
	// ErrInvalidName is returned when an entry name is empty or not clean.
	ErrInvalidName = errors.New("zipfs: invalid entry name")
)

// Options customises Open.
type Options struct {
	// Level is the deflate compression level passed to [flate.NewWriter].
	//
	// Default to flate.DefaultCompression.
	Level int

	// Logger receives periodic progress while FS.Close writes the archive.
	//
	// Default to nil which disables progress logs.
	Logger *log.Logger

	// ProgressInterval is the minimum interval between two progress logs.
	//
	// Default to DefaultProgressInterval.
	ProgressInterval time.Duration
}

// DefaultProgressInterval is the default value for Options.ProgressInterval.
const DefaultProgressInterval = 5 * time.Second

// EntryInfo describes a file entry.
type EntryInfo struct {
	Name           string
	Size           uint64
	CompressedSize uint64
	Method         uint16
	Modified       time.Time
}

// FS is an open ZIP archive.
type FS struct {
	name string
	opts Options

	// mu guards all fields below.
	mu      sync.Mutex
	entries map[string]*entry
	seq     int
	closed  bool
}

type entry struct {
	fh   zip.FileHeader
	data *bytebufferpool.ByteBuffer // raw compressed data; nil for directories.
	seq  int
}

func (e *entry) isDir() bool {
	return e.data == nil
}

// Open opens the ZIP archive with the given name for modification, creating it on FS.Close if it does not exist.
//
// If the file exists, its entries are loaded (still compressed) into memory so that they can be kept, replaced, or
// removed. Nothing is written to the named file until FS.Close.
func Open(name string, optFns ...func(*Options)) (*FS, error) {
	opts := Options{
		Level:            flate.DefaultCompression,
		ProgressInterval: DefaultProgressInterval,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := flate.NewWriter(io.Discard, opts.Level); err != nil {
		return nil, fmt.Errorf("invalid compression level %d: %w", opts.Level, err)
	}

	f := &FS{
		name:    name,
		opts:    opts,
		entries: make(map[string]*entry),
	}

	switch fi, err := os.Stat(name); {
	case errors.Is(err, fs.ErrNotExist):
		return f, checkWritable(name)
	case err != nil:
		return nil, fmt.Errorf(`stat archive "%s" error: %w`, name, err)
	case fi.IsDir():
		return nil, fmt.Errorf(`archive "%s" is a directory`, name)
	}

	if err := f.load(); err != nil {
		f.release()
		return nil, err
	}

	return f, nil
}

// checkWritable verifies that the archive can be created without creating it.
func checkWritable(name string) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".zipfs-*")
	if err != nil {
		return fmt.Errorf(`create archive "%s" error: %w`, name, err)
	}

	_, _ = tmp.Close(), os.Remove(tmp.Name())
	return nil
}

// load reads existing entries without decompressing them.
func (f *FS) load() error {
	r, err := zip.OpenReader(f.name)
	if err != nil {
		return fmt.Errorf(`open archive "%s" error: %w`, f.name, err)
	}
	defer r.Close()

	for _, zf := range r.File {
		name := strings.TrimSuffix(zf.Name, "/")
		if name == "" {
			continue
		}

		e := &entry{fh: zf.FileHeader, seq: f.next()}
		e.fh.Flags &^= flagDataDescriptor

		if !strings.HasSuffix(zf.Name, "/") {
			raw, err := zf.OpenRaw()
			if err != nil {
				return fmt.Errorf(`open entry "%s" error: %w`, zf.Name, err)
			}

			e.data = bytebufferpool.Get()
			if _, err = e.data.ReadFrom(raw); err != nil {
				bytebufferpool.Put(e.data)
				return fmt.Errorf(`read entry "%s" error: %w`, zf.Name, err)
			}
		}

		if old, ok := f.entries[name]; ok && old.data != nil {
			bytebufferpool.Put(old.data)
		}
		f.entries[name] = e
	}

	return nil
}

// Name returns the name of the archive file.
func (f *FS) Name() string {
	return f.name
}

func (f *FS) next() int {
	f.seq++
	return f.seq
}

// MkdirAll creates directory entries for dir and all of its parents that do not exist yet.
//
// MkdirAll is idempotent; concurrent calls for directories sharing ancestors create each directory entry exactly once.
// An empty or "." dir is a no-op.
func (f *FS) MkdirAll(dir string) error {
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || dir == "." {
		return nil
	}
	if !validName(dir) {
		return fmt.Errorf(`mkdir "%s" error: %w`, dir, ErrInvalidName)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	// validate the whole chain before creating anything.
	var missing []string
	for p := dir; p != "."; p = path.Dir(p) {
		switch e, ok := f.entries[p]; {
		case !ok:
			missing = append(missing, p)
		case !e.isDir():
			return fmt.Errorf(`mkdir "%s" error: "%s": %w`, dir, p, ErrNotDir)
		}
	}

	now := time.Now()
	for _, p := range slices.Backward(missing) {
		f.entries[p] = &entry{fh: dirHeader(p, now), seq: f.next()}
	}

	return nil
}

// Exists returns true if a file or directory entry with the given name exists.
func (f *FS) Exists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.entries[strings.TrimSuffix(name, "/")]
	return ok
}

// Remove deletes the file entry with the given name.
//
// Returns an error wrapping fs.ErrNotExist if no such entry exists, or ErrIsDir if the entry is a directory.
func (f *FS) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	e, ok := f.entries[name]
	switch {
	case !ok:
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	case e.isDir():
		return &fs.PathError{Op: "remove", Path: name, Err: ErrIsDir}
	}

	delete(f.entries, name)
	bytebufferpool.Put(e.data)
	return nil
}

// Stat describes the file entry with the given name.
func (f *FS) Stat(name string) (EntryInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return EntryInfo{}, ErrClosed
	}

	e, ok := f.entries[name]
	switch {
	case !ok:
		return EntryInfo{}, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	case e.isDir():
		return EntryInfo{}, &fs.PathError{Op: "stat", Path: name, Err: ErrIsDir}
	}

	return EntryInfo{
		Name:           name,
		Size:           e.fh.UncompressedSize64,
		CompressedSize: e.fh.CompressedSize64,
		Method:         e.fh.Method,
		Modified:       e.fh.Modified,
	}, nil
}

// Entries returns the sorted names of all entries; directory names have a trailing slash.
func (f *FS) Entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.entries))
	for name, e := range f.entries {
		if e.isDir() {
			name += "/"
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

// commit adds or replaces the file entry.
func (f *FS) commit(e *entry) error {
	name := e.fh.Name

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	if old, ok := f.entries[name]; ok {
		if old.isDir() {
			return &fs.PathError{Op: "create", Path: name, Err: ErrIsDir}
		}

		bytebufferpool.Put(old.data)
	}

	e.seq = f.next()
	f.entries[name] = e
	return nil
}

// release returns all buffers to the pool.
func (f *FS) release() {
	for _, e := range f.entries {
		if e.data != nil {
			bytebufferpool.Put(e.data)
		}
	}

	f.entries = nil
}

func validName(name string) bool {
	return name != "" && name != "." && !strings.HasPrefix(name, "/") && path.Clean(name) == name &&
		name != ".." && !strings.HasPrefix(name, "../")
}
