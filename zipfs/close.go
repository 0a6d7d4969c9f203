package zipfs

import (
	"archive/zip"
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// Close writes all entries and the central directory to the archive file, then releases all memory.
//
// The archive is written to a temporary file in the same directory and renamed over the archive file only on success,
// so a failed Close leaves any pre-existing archive untouched. Close must be called exactly once; subsequent calls
// return ErrClosed. All other methods return ErrClosed after Close has been called.
func (f *FS) Close() (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	f.closed = true
	defer f.release()

	entries := make([]*entry, 0, len(f.entries))
	var total uint64
	for _, e := range f.entries {
		entries = append(entries, e)
		total += e.fh.CompressedSize64
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		return a.seq - b.seq
	})

	dst, err := os.CreateTemp(filepath.Dir(f.name), "."+filepath.Base(f.name)+"-*.tmp")
	if err != nil {
		return fmt.Errorf(`create archive "%s" error: %w`, f.name, err)
	}
	defer func() {
		if err != nil {
			_, _ = dst.Close(), os.Remove(dst.Name())
		}
	}()

	bw := bufio.NewWriterSize(dst, 64*1024)
	zw := zip.NewWriter(bw)

	var (
		start     = time.Now()
		sometimes = rate.Sometimes{Interval: f.opts.ProgressInterval}
		written   uint64
		n         = len(entries)
	)
	for i, e := range entries {
		fh := e.fh
		if e.isDir() && !strings.HasSuffix(fh.Name, "/") {
			fh.Name += "/"
		}

		w, err := zw.CreateRaw(&fh)
		if err != nil {
			return fmt.Errorf(`write entry "%s" error: %w`, fh.Name, err)
		}
		if !e.isDir() {
			if _, err = w.Write(e.data.B); err != nil {
				return fmt.Errorf(`write entry "%s" error: %w`, fh.Name, err)
			}
			written += uint64(e.data.Len())
		}

		// a Close that finishes within one interval stays silent.
		if f.opts.Logger != nil && time.Since(start) >= f.opts.ProgressInterval {
			sometimes.Do(func() {
				f.opts.Logger.Printf("[%d/%d] wrote %s / %s so far", i+1, n, humanize.Bytes(written), humanize.Bytes(total))
			})
		}
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf(`write central directory of "%s" error: %w`, f.name, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf(`flush archive "%s" error: %w`, f.name, err)
	}
	perm := os.FileMode(0644)
	if fi, err := os.Stat(f.name); err == nil {
		perm = fi.Mode().Perm()
	}
	if err = dst.Chmod(perm); err != nil {
		return fmt.Errorf(`chmod archive "%s" error: %w`, f.name, err)
	}
	if err = dst.Close(); err != nil {
		return fmt.Errorf(`close archive "%s" error: %w`, f.name, err)
	}
	if err = os.Rename(dst.Name(), f.name); err != nil {
		return fmt.Errorf(`rename archive "%s" error: %w`, f.name, err)
	}

	return nil
}
