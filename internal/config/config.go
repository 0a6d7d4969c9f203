package config

import (
	"fmt"

	"github.com/nguyengg/zipp/option"
)

// ZippConfig contains the [zipp] section.
type ZippConfig struct {
	// Options are always given in addition to those from the command line.
	Options option.Set

	// MaxConcurrency is the number of files added concurrently with option.Parallel; 0 means unset.
	MaxConcurrency int

	// Level is the deflate compression level; nil means unset.
	Level *int

	// Locale overrides the locale from the environment, e.g. "de_DE.UTF-8" or "sv".
	Locale string
}

// ForZipp returns configuration for adding files.
//
// An error is returned only if the section exists but contains invalid values.
func (l *Loader) ForZipp() (ZippConfig, error) {
	var c ZippConfig

	sec, ok := l.section("zipp")
	if !ok {
		return c, nil
	}

	if k, err := sec.GetKey("options"); err == nil {
		if c.Options, err = option.Decode(k.Strings(" ")); err != nil {
			return c, fmt.Errorf(`parse [zipp] options error: %w`, err)
		}
	}

	if k, err := sec.GetKey("max-concurrency"); err == nil {
		if c.MaxConcurrency, err = k.Int(); err != nil || c.MaxConcurrency < 0 {
			return c, fmt.Errorf(`parse [zipp] max-concurrency "%s" error: must be a non-negative integer`, k.Value())
		}
	}

	if k, err := sec.GetKey("level"); err == nil {
		v, err := k.Int()
		if err != nil || v < -2 || v > 9 {
			return c, fmt.Errorf(`parse [zipp] level "%s" error: must be between -2 and 9`, k.Value())
		}

		c.Level = &v
	}

	c.Locale = sec.Key("locale").String()
	return c, nil
}

// ForZipp calls Loader.ForZipp on the DefaultLoader instance.
func ForZipp() (ZippConfig, error) {
	return DefaultLoader.ForZipp()
}

// GenerateConfig contains the [generate] section.
type GenerateConfig struct {
	FilesPerCPU int
	MinWords    int
	MaxWords    int
}

// DefaultGenerateConfig is used for every key absent from the [generate] section.
var DefaultGenerateConfig = GenerateConfig{
	FilesPerCPU: 10,
	MinWords:    7_000_000,
	MaxWords:    10_000_000,
}

// ForGenerate returns configuration for generating test files.
func (l *Loader) ForGenerate() (c GenerateConfig, err error) {
	c = DefaultGenerateConfig

	sec, ok := l.section("generate")
	if !ok {
		return c, nil
	}

	for key, v := range map[string]*int{
		"files-per-cpu": &c.FilesPerCPU,
		"min-words":     &c.MinWords,
		"max-words":     &c.MaxWords,
	} {
		if !sec.HasKey(key) {
			continue
		}

		k := sec.Key(key)
		if *v, err = k.Int(); err != nil || *v < 0 {
			return c, fmt.Errorf(`parse [generate] %s "%s" error: must be a non-negative integer`, key, k.Value())
		}
	}

	if c.MinWords > c.MaxWords {
		return c, fmt.Errorf("[generate] min-words (%d) must not exceed max-words (%d)", c.MinWords, c.MaxWords)
	}

	return c, nil
}

// ForGenerate calls Loader.ForGenerate on the DefaultLoader instance.
func ForGenerate() (GenerateConfig, error) {
	return DefaultLoader.ForGenerate()
}
