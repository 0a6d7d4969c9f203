package zipfs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/valyala/bytebufferpool"
)

const (
	flagDataDescriptor = 0x8
	flagUTF8           = 0x800
)

// Writer writes the content of one file entry.
//
// The entry becomes visible in the archive only after Close returns successfully. Abort discards the entry instead.
// A Writer must not be used concurrently, but different Writers can be used concurrently.
type Writer struct {
	f    *FS
	fh   zip.FileHeader
	buf  *bytebufferpool.ByteBuffer
	fw   *flate.Writer
	crc  hash.Hash32
	size uint64
	done bool
}

// Create returns a Writer for a new file entry with the given name.
//
// The parent directories of the entry should have been created with MkdirAll. If fi is non-nil, its modification
// time and mode are recorded. If an entry with the same name already exists when Writer.Close is called, it is
// replaced.
func (f *FS) Create(name string, fi os.FileInfo) (*Writer, error) {
	if !validName(name) {
		return nil, &fs.PathError{Op: "create", Path: name, Err: ErrInvalidName}
	}

	f.mu.Lock()
	closed := f.closed
	e, exists := f.entries[name]
	f.mu.Unlock()

	switch {
	case closed:
		return nil, ErrClosed
	case exists && e.isDir():
		return nil, &fs.PathError{Op: "create", Path: name, Err: ErrIsDir}
	}

	w := &Writer{
		f:   f,
		fh:  fileHeader(name, fi),
		buf: bytebufferpool.Get(),
		crc: crc32.NewIEEE(),
	}

	var err error
	if w.fw, err = flate.NewWriter(w.buf, f.opts.Level); err != nil {
		bytebufferpool.Put(w.buf)
		return nil, fmt.Errorf(`create compressor for "%s" error: %w`, name, err)
	}

	return w, nil
}

// Write compresses p into the entry.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.done {
		return 0, fs.ErrClosed
	}

	if n, err = w.fw.Write(p); n > 0 {
		_, _ = w.crc.Write(p[:n])
		w.size += uint64(n)
	}

	return
}

// Close flushes the compressor and commits the entry to the archive.
//
// If deflate did not make the content smaller, the entry is stored uncompressed instead.
func (w *Writer) Close() error {
	if w.done {
		return fs.ErrClosed
	}
	w.done = true

	if err := w.fw.Close(); err != nil {
		bytebufferpool.Put(w.buf)
		return fmt.Errorf(`flush entry "%s" error: %w`, w.fh.Name, err)
	}

	if uint64(w.buf.Len()) >= w.size {
		if err := w.store(); err != nil {
			bytebufferpool.Put(w.buf)
			return err
		}
	}

	w.fh.CRC32 = w.crc.Sum32()
	w.fh.UncompressedSize64 = w.size
	w.fh.CompressedSize64 = uint64(w.buf.Len())

	if err := w.f.commit(&entry{fh: w.fh, data: w.buf}); err != nil {
		bytebufferpool.Put(w.buf)
		return err
	}

	return nil
}

// Abort discards the entry; the archive is left unchanged.
//
// Abort is a no-op if Close or Abort has already been called.
func (w *Writer) Abort() {
	if w.done {
		return
	}

	w.done = true
	_ = w.fw.Close()
	bytebufferpool.Put(w.buf)
}

// store replaces the deflated content with the original content.
func (w *Writer) store() error {
	r := flate.NewReader(bytes.NewReader(w.buf.B))
	defer r.Close()

	raw := bytebufferpool.Get()
	if _, err := raw.ReadFrom(r); err != nil {
		bytebufferpool.Put(raw)
		return fmt.Errorf(`restore entry "%s" error: %w`, w.fh.Name, err)
	}
	if uint64(raw.Len()) != w.size {
		bytebufferpool.Put(raw)
		return fmt.Errorf(`restore entry "%s" error: %w`, w.fh.Name, io.ErrUnexpectedEOF)
	}

	bytebufferpool.Put(w.buf)
	w.buf = raw
	w.fh.Method = zip.Store
	return nil
}

// EntryName returns the name of the entry for the file with the given path.
//
// The path is converted to forward slashes, its volume name and leading slashes removed, and "." and ".." segments
// resolved without escaping the root. For example "/home/user/a.txt" becomes "home/user/a.txt" and "../x/./b.txt"
// becomes "x/b.txt". Returns an empty string if nothing remains.
func EntryName(path string) string {
	s := strings.ReplaceAll(path, "\\", "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}

	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		default:
			stack = append(stack, part)
		}
	}

	return strings.Join(stack, "/")
}

func fileHeader(name string, fi os.FileInfo) zip.FileHeader {
	fh := zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	if fi != nil {
		setModified(&fh, fi.ModTime())
		fh.SetMode(fi.Mode())
	} else {
		setModified(&fh, time.Now())
		fh.SetMode(0644)
	}
	if requiresUTF8(name) {
		fh.Flags |= flagUTF8
	}

	return fh
}

func dirHeader(name string, modified time.Time) zip.FileHeader {
	fh := zip.FileHeader{
		Name:   name + "/",
		Method: zip.Store,
	}
	setModified(&fh, modified)
	fh.SetMode(fs.ModeDir | 0755)
	if requiresUTF8(name) {
		fh.Flags |= flagUTF8
	}

	return fh
}

// setModified fills both Modified and the MS-DOS fields since zip.Writer.CreateRaw does not derive the latter.
func setModified(fh *zip.FileHeader, t time.Time) {
	fh.Modified = t
	fh.ModifiedDate, fh.ModifiedTime = timeToMsDosTime(t)
}

// timeToMsDosTime is the inverse of the MS-DOS decoding done by archive/zip.
func timeToMsDosTime(t time.Time) (dosDate, dosTime uint16) {
	if t.Year() < 1980 {
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, t.Location())
	}

	// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
	dosDate = uint16(t.Day() + int(t.Month())<<5 + (t.Year()-1980)<<9)
	// time bits 0-4: second/2; 5-10: minute; 11-15: hour
	dosTime = uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	return
}

func requiresUTF8(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf {
			return utf8.ValidString(name)
		}
	}

	return false
}

var _ io.WriteCloser = (*Writer)(nil)
