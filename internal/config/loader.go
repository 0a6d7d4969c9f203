package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-ini/ini"
)

// Name is the name of the configuration file.
const Name = ".zipp"

// Loader loads .zipp configuration.
//
// The zero value is ready for use and behaves as if an empty configuration file was loaded.
type Loader struct {
	cfg *ini.File
}

// Load will traverse the directory hierarchy upwards to find the first ".zipp" file available and load its contents
// into the Loader.
//
// The name of the .zipp file is returned, or an empty string if none was found in which case the Loader is reset to an
// empty configuration. A directory named ".zipp" is not a
// configuration file and the search continues past it.
func (l *Loader) Load(ctx context.Context) (string, error) {
	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		name := filepath.Join(cur, Name)
		switch fi, err := os.Stat(name); {
		case err == nil && !fi.IsDir():
			return name, l.LoadFile(name)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			l.cfg = ini.Empty()
			return "", nil
		}

		cur = parent
	}
}

// LoadFile loads the given configuration file, replacing any previously loaded configuration.
//
// On error, the Loader is reset to an empty configuration.
func (l *Loader) LoadFile(name string) (err error) {
	if l.cfg, err = ini.Load(name); err != nil {
		l.cfg = ini.Empty()
		return err
	}

	return nil
}

func (l *Loader) section(name string) (*ini.Section, bool) {
	if l.cfg == nil {
		return nil, false
	}

	sec, err := l.cfg.GetSection(name)
	return sec, err == nil
}

// DefaultLoader is the default Loader instance for package-level methods.
var DefaultLoader = &Loader{cfg: ini.Empty()}

// Load calls Loader.Load on the DefaultLoader instance.
func Load(ctx context.Context) (string, error) {
	return DefaultLoader.Load(ctx)
}
