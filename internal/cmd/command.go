package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/nguyengg/zipp"
	"github.com/nguyengg/zipp/internal/config"
	"github.com/nguyengg/zipp/message"
	"github.com/nguyengg/zipp/option"
)

// Exit codes returned by Run.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitInternal = 2
)

// ErrNotEnoughArguments is returned when the archive name or the files to add are missing.
var ErrNotEnoughArguments = errors.New("not enough arguments")

// ConfigError is returned when the configuration file cannot be loaded or has invalid values.
type ConfigError struct {
	Name string
	Err  error
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf(`load config "%s" error: %v`, e.Name, e.Err)
}

// NewParser returns the parser for the given command.
//
// Errors are not printed by the parser so that they can be reported with the user's catalog.
func NewParser(z *Zipp) (*flags.Parser, error) {
	p := flags.NewNamedParser("zipp", flags.HelpFlag|flags.PassDoubleDash)
	p.Usage = option.Syntax() + " zip_archive file [...]"
	if _, err := p.AddGroup("Options", "", z); err != nil {
		return nil, err
	}

	return p, nil
}

// Run parses the command-line arguments (without the program name) then runs zipp, returning the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	z := &Zipp{
		Stdout:  stdout,
		Stderr:  stderr,
		Loader:  config.DefaultLoader,
		ctx:     ctx,
		catalog: message.New(message.Detect()),
	}

	p, err := NewParser(z)
	if err != nil {
		return z.report(err)
	}

	rest, err := p.ParseArgs(args)
	if err != nil {
		var fe *flags.Error
		switch {
		case errors.As(err, &fe) && fe.Type == flags.ErrHelp:
			_, _ = fmt.Fprintln(stdout, fe.Message)
			return ExitOK
		case errors.As(err, &fe) && fe.Type == flags.ErrUnknownFlag:
			err = unknownOption(args, err)
		}

		return z.report(err)
	}

	if err = z.Execute(rest); err != nil {
		return z.report(err)
	}

	return ExitOK
}

// unknownOption finds the offending argument so that it can be reported the same way as an unknown option in the
// configuration file.
func unknownOption(args []string, err error) error {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			continue
		}

		if _, perr := option.Decode([]string{arg}); perr != nil {
			return perr
		}
	}

	return err
}

// report prints err in the user's language and returns the matching exit code.
func (z *Zipp) report(err error) int {
	var (
		c   = z.catalog
		ce  *ConfigError
		ioe *option.IllegalOptionError
		te  *zipp.TraversalError
	)

	switch {
	case errors.As(err, &ce):
		_, _ = fmt.Fprintln(z.Stderr, err)
	case errors.As(err, &ioe):
		_, _ = fmt.Fprintln(z.Stderr, c.Lookup(message.UnknownOption)+ioe.Name)
	case errors.Is(err, ErrNotEnoughArguments):
		_, _ = fmt.Fprintln(z.Stderr, c.Lookup(message.NoArgs))
	case errors.As(err, &te):
		_, _ = fmt.Fprintf(z.Stderr, "%s: %v\n", c.Sprintf(message.ErrTraverse, te.Dir), te.Err)

		// the archive may also have failed to close after the traversal failed.
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range j.Unwrap() {
				if e != nil && !errors.As(e, &te) {
					_, _ = fmt.Fprintln(z.Stderr, e)
				}
			}
		}
		return ExitInternal
	default:
		_, _ = fmt.Fprintln(z.Stderr, err)

		var fe *flags.Error
		if !errors.As(err, &fe) {
			return ExitInternal
		}
	}

	_, _ = fmt.Fprintln(z.Stderr)
	_, _ = fmt.Fprintln(z.Stderr, c.Lookup(message.Usage))
	return ExitUsage
}
