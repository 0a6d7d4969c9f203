package zipp

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/klauspost/compress/flate"

	"github.com/nguyengg/zipp/internal/executor"
	"github.com/nguyengg/zipp/message"
	"github.com/nguyengg/zipp/option"
	"github.com/nguyengg/zipp/zipfs"
)

// Options customises New.
type Options struct {
	// Logger receives one line per file successfully added to the archive.
	//
	// Default to a logger writing to os.Stdout without prefix or flags.
	Logger *log.Logger

	// ErrorLogger receives one line per file that could not be added to the archive.
	//
	// Default to a logger writing to os.Stderr without prefix or flags.
	ErrorLogger *log.Logger

	// MaxConcurrency is the number of files added concurrently when option.Parallel is given.
	//
	// Default to runtime.NumCPU.
	MaxConcurrency int

	// Level is the deflate compression level.
	//
	// Default to flate.DefaultCompression.
	Level int

	// Catalog provides the words used in log lines.
	//
	// Default to message.Default.
	Catalog *message.Catalog
}

// Builder builds one ZIP archive.
//
// A Builder owns its archive until Close is called. Add and AddFiles can be called multiple times; adding the same
// file twice replaces its entry.
type Builder struct {
	name      string
	fs        *zipfs.FS
	recursive bool
	parallel  bool
	opts      Options

	closeOnce sync.Once
	closeErr  error
}

// New opens (creating if absent) the ZIP archive with the given name.
//
// Only option.Recursive and option.Parallel affect the Builder; other options are ignored. The returned Builder must
// be closed to write the archive.
func New(name string, set option.Set, optFns ...func(*Options)) (*Builder, error) {
	opts := Options{
		Logger:         log.New(os.Stdout, "", 0),
		ErrorLogger:    log.New(os.Stderr, "", 0),
		MaxConcurrency: runtime.NumCPU(),
		Level:          flate.DefaultCompression,
		Catalog:        message.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.ErrorLogger == nil {
		opts.ErrorLogger = log.New(io.Discard, "", 0)
	}
	if opts.Catalog == nil {
		opts.Catalog = message.Default
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = runtime.NumCPU()
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf(`resolve archive name "%s" error: %w`, name, err)
	}

	f, err := zipfs.Open(abs, func(o *zipfs.Options) {
		o.Level = opts.Level
		o.Logger = opts.ErrorLogger
	})
	if err != nil {
		return nil, err
	}

	return &Builder{
		name:      abs,
		fs:        f,
		recursive: set.Has(option.Recursive),
		parallel:  set.Has(option.Parallel),
		opts:      opts,
	}, nil
}

// Name returns the absolute path of the archive.
func (b *Builder) Name() string {
	return b.name
}

// Entries returns the sorted names of all entries currently in the archive.
func (b *Builder) Entries() []string {
	return b.fs.Entries()
}

// AddFiles resolves the given file and directory arguments with Resolve, then adds every resolved file to the
// archive.
//
// Files are added one at a time in resolved order, or concurrently if the Builder was created with option.Parallel.
// Failing to read a file is not an error: it is logged to Options.ErrorLogger, reported in the returned Outcome, and
// the remaining files are still added. The returned error is either a *TraversalError, an *ArchiveError, or the
// context's error; it stops further files from being added.
//
// The returned outcomes are in resolved order and only include files that were attempted.
func (b *Builder) AddFiles(ctx context.Context, specs []string) ([]Outcome, error) {
	paths, err := Resolve(ctx, specs, b.recursive)
	if err != nil {
		return nil, err
	}

	if !b.parallel || b.opts.MaxConcurrency == 1 || len(paths) < 2 {
		outcomes := make([]Outcome, 0, len(paths))
		for _, path := range paths {
			select {
			case <-ctx.Done():
				return outcomes, ctx.Err()
			default:
			}

			o, err := b.Add(ctx, path)
			if err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, o)
		}

		return outcomes, nil
	}

	return b.addParallel(ctx, paths)
}

func (b *Builder) addParallel(ctx context.Context, paths []string) ([]Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		outcomes  = make([]Outcome, len(paths))
		attempted = make([]bool, len(paths))
		once      sync.Once
		fatal     error
	)

	// the caller also runs commands when the pool is full so n-1 workers give n concurrent adds.
	ex := executor.NewCallerRunOnRejectExecutor(b.opts.MaxConcurrency - 1)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}

		ex.Execute(func() {
			if ctx.Err() != nil {
				return
			}

			o, err := b.Add(ctx, path)
			if err != nil {
				once.Do(func() {
					fatal = err
					cancel()
				})
				return
			}

			outcomes[i], attempted[i] = o, true
		})
	}
	_ = ex.Close()

	res := make([]Outcome, 0, len(paths))
	for i, ok := range attempted {
		if ok {
			res = append(res, outcomes[i])
		}
	}

	// without a fatal error, files can only be skipped if the parent context is done.
	if fatal == nil && len(res) < len(paths) {
		fatal = ctx.Err()
	}

	return res, fatal
}

// Close writes the archive's central directory and releases the archive.
//
// Close is idempotent; only the first call closes the archive, and subsequent calls return the same error.
func (b *Builder) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.fs.Close()
	})

	return b.closeErr
}
