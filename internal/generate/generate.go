// Package generate creates temporary text files to benchmark zipp with.
package generate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/nguyengg/zipp/internal/executor"
)

// Options customises Files.
type Options struct {
	// Dir is the parent of the directory containing the generated files.
	//
	// Default to os.TempDir.
	Dir string

	// Count is the number of files to generate.
	//
	// Default to runtime.NumCPU times 10.
	Count int

	// MinWords and MaxWords bound the number of words in each file, inclusive.
	//
	// Default to 7,000,000 and 10,000,000 respectively.
	MinWords, MaxWords int

	// MaxConcurrency is the number of files generated concurrently.
	//
	// Default to runtime.NumCPU.
	MaxConcurrency int

	// Progress receives a progress bar if it is a terminal, or periodic progress logs otherwise.
	//
	// Default to os.Stderr. Use io.Discard to disable progress.
	Progress io.Writer
}

// Files generates files of random lorem ipsum words in a new temporary directory.
//
// The returned names are in creation order. The returned cleanup function removes the directory and all generated
// files; it must be called even if Files returns an error.
func Files(ctx context.Context, optFns ...func(*Options)) (names []string, cleanup func() error, err error) {
	opts := Options{
		Dir:            os.TempDir(),
		Count:          runtime.NumCPU() * 10,
		MinWords:       7_000_000,
		MaxWords:       10_000_000,
		MaxConcurrency: runtime.NumCPU(),
		Progress:       os.Stderr,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cleanup = func() error { return nil }

	if opts.MinWords < 0 || opts.MinWords > opts.MaxWords {
		return nil, cleanup, fmt.Errorf("invalid word range [%d, %d]", opts.MinWords, opts.MaxWords)
	}

	dir := filepath.Join(opts.Dir, "zipp-"+uuid.NewString())
	if err = os.Mkdir(dir, 0700); err != nil {
		return nil, cleanup, fmt.Errorf(`create temporary directory "%s" error: %w`, dir, err)
	}
	cleanup = func() error {
		return os.RemoveAll(dir)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		p        = newProgress(opts.Progress, opts.Count)
		mu       sync.Mutex
		once     sync.Once
		firstErr error
	)

	names = make([]string, 0, opts.Count)

	ex := executor.NewCallerRunOnRejectExecutor(opts.MaxConcurrency - 1)
	for range opts.Count {
		if ctx.Err() != nil {
			break
		}

		ex.Execute(func() {
			if ctx.Err() != nil {
				return
			}

			name := filepath.Join(dir, uuid.NewString()+".txt")
			if err := writeFile(ctx, name, opts.MinWords+rand.IntN(opts.MaxWords-opts.MinWords+1)); err != nil {
				once.Do(func() {
					firstErr = fmt.Errorf(`generate file "%s" error: %w`, name, err)
					cancel()
				})
				return
			}

			mu.Lock()
			names = append(names, name)
			mu.Unlock()

			p.increment(name)
		})
	}
	_ = ex.Close()
	p.finish()

	if firstErr == nil && len(names) < opts.Count {
		firstErr = ctx.Err()
	}

	return names, cleanup, firstErr
}

// writeFile writes n space-separated words to a new file, sixteen words per line.
func writeFile(ctx context.Context, name string, n int) (err error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriterSize(f, 64*1024)
	for i := range n {
		if i%(64*1024) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		sep := byte(' ')
		if i == n-1 || i%16 == 15 {
			sep = '\n'
		}

		if _, err = w.WriteString(words[rand.IntN(len(words))]); err != nil {
			return err
		}
		if err = w.WriteByte(sep); err != nil {
			return err
		}
	}

	return w.Flush()
}
