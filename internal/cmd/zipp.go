package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/nguyengg/zipp"
	"github.com/nguyengg/zipp/internal/config"
	"github.com/nguyengg/zipp/internal/generate"
	"github.com/nguyengg/zipp/internal/timing"
	"github.com/nguyengg/zipp/message"
	"github.com/nguyengg/zipp/option"
)

// Zipp adds files and directories to a ZIP archive.
type Zipp struct {
	Parallel  bool `short:"p" long:"parallel" description:"add files concurrently"`
	Recursive bool `short:"r" long:"recursive" description:"add the content of directories recursively"`
	Test      bool `short:"t" long:"test" description:"print CPU and wall-clock timings"`
	Generate  bool `short:"g" long:"generate" description:"add generated temporary files instead of the given files"`
	Args      struct {
		Archive string   `positional-arg-name:"zip_archive" description:"the ZIP archive to create or update"`
		Files   []string `positional-arg-name:"file" description:"the files/directories to be added"`
	} `positional-args:"yes"`

	Stdout io.Writer      `no-flag:"true"`
	Stderr io.Writer      `no-flag:"true"`
	Loader *config.Loader `no-flag:"true"`

	ctx     context.Context
	catalog *message.Catalog
}

// Options returns the options given on the command line.
func (z *Zipp) Options() (s option.Set) {
	for o, ok := range map[option.Option]bool{
		option.Parallel:  z.Parallel,
		option.Recursive: z.Recursive,
		option.Test:      z.Test,
		option.Generate:  z.Generate,
	} {
		if ok {
			s = s.With(o)
		}
	}

	return s
}

// Execute implements flags.Commander.
func (z *Zipp) Execute(args []string) error {
	ctx := z.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if z.catalog == nil {
		z.catalog = message.New(message.Detect())
	}
	if z.Loader == nil {
		z.Loader = config.DefaultLoader
	}

	if len(args) != 0 {
		z.Args.Files = append(z.Args.Files, args...)
	}

	name, err := z.Loader.Load(ctx)
	if err != nil {
		return &ConfigError{Name: name, Err: err}
	}

	cfg, err := z.Loader.ForZipp()
	if err != nil {
		return &ConfigError{Name: name, Err: err}
	}
	if cfg.Locale != "" {
		if lang := message.Parse(cfg.Locale); lang != "" {
			z.catalog = message.New(lang)
		}
	}

	set := z.Options().Union(cfg.Options)
	c := z.catalog
	stdout := log.New(z.Stdout, "", 0)
	stderr := log.New(z.Stderr, "", 0)

	if z.Args.Archive == "" {
		return ErrNotEnoughArguments
	}

	files := z.Args.Files
	if set.Has(option.Generate) {
		g, err := z.Loader.ForGenerate()
		if err != nil {
			return &ConfigError{Name: name, Err: err}
		}

		n := runtime.NumCPU() * g.FilesPerCPU
		stdout.Print(c.Sprintf(message.CreateTemp, n, runtime.NumCPU()))

		generated, cleanup, err := generate.Files(ctx, func(opts *generate.Options) {
			opts.Count = n
			opts.MinWords = g.MinWords
			opts.MaxWords = g.MaxWords
			opts.Progress = z.Stderr
		})
		defer func() {
			if err := cleanup(); err != nil {
				stderr.Printf("remove generated files error: %v", err)
			}
		}()
		if err != nil {
			return fmt.Errorf("generate files error: %w", err)
		}

		stdout.Print(c.Lookup(message.Done))
		files = generated
	}

	if len(files) == 0 {
		return ErrNotEnoughArguments
	}

	begin := timing.Now()

	b, err := zipp.New(z.Args.Archive, set, func(opts *zipp.Options) {
		opts.Logger = stdout
		opts.ErrorLogger = stderr
		opts.Catalog = c
		if cfg.MaxConcurrency > 0 {
			opts.MaxConcurrency = cfg.MaxConcurrency
		}
		if cfg.Level != nil {
			opts.Level = *cfg.Level
		}
	})
	if err != nil {
		return err
	}

	stdout.Print(c.Sprintf(message.Working, b.Name(), set))

	outcomes, err := b.AddFiles(ctx, files)
	if err != nil {
		// partially added files are still written, same as a successful run.
		return errors.Join(err, b.Close())
	}

	mid := timing.Now()
	if set.Has(option.Test) {
		e := mid.Sub(begin)
		stdout.Print(c.Sprintf(message.TimeAdd, e.CPU.Milliseconds(), e.Wall.Milliseconds(), e.Ratio()))
	}

	_, _ = fmt.Fprint(z.Stdout, c.Lookup(message.Closing))
	if err = b.Close(); err != nil {
		_, _ = fmt.Fprintln(z.Stdout)
		return err
	}
	_, _ = fmt.Fprintln(z.Stdout, c.Lookup(message.Done))
	stdout.Print(c.Lookup(message.Created))
	stdout.Print(summary(c, outcomes))

	if set.Has(option.Test) {
		end := timing.Now()
		e := end.Sub(mid)
		stdout.Print(c.Sprintf(message.TimeClose, e.CPU.Milliseconds(), e.Wall.Milliseconds(), e.Ratio()))
		e = end.Sub(begin)
		stdout.Print(c.Sprintf(message.TimeTotal, e.CPU.Milliseconds(), e.Wall.Milliseconds(), e.Ratio()))
		stdout.Print(c.Sprintf(message.Processors, runtime.NumCPU()))
	}

	return nil
}

func summary(c *message.Catalog, outcomes []zipp.Outcome) string {
	var (
		added       int
		read, store uint64
	)
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}

		added++
		read += o.Size
		store += o.CompressedSize
	}

	return c.Sprintf(message.Summary, added, len(outcomes), humanize.Bytes(read), humanize.Bytes(store))
}
