package gen

import (
	"go/token"
	"path/filepath"
	"runtime"
)

// DefaultHeader is the header comment of generated files.
const DefaultHeader = "Code generated by lightdao. DO NOT EDIT."

// Config configures code generation.
type Config struct {
	// OutDir is the directory the files are written to.
	OutDir string
	// Package is the package name of the generated files. It defaults to
	// the base name of OutDir.
	Package string
	// Header is the comment written at the top of each file.
	Header  string
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// NewConfig returns a Config writing into outDir.
func NewConfig(outDir string, opts ...Option) (*Config, error) {
	if outDir == "" {
		return nil, &ConfigError{Option: "OutDir", Message: "output directory cannot be empty"}
	}
	c := &Config{
		OutDir:  outDir,
		Package: filepath.Base(outDir),
		Header:  DefaultHeader,
		Workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if !token.IsIdentifier(c.Package) {
		return nil, &ConfigError{Option: "Package", Value: c.Package, Message: "not a valid package name"}
	}
	return c, nil
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the package name of the generated files.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return &ConfigError{Option: "Package", Message: "package cannot be empty"}
		}
		c.Package = pkg
		return nil
	}
}

// WithWorkers sets the number of files generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return &ConfigError{Option: "Workers", Value: n, Message: "must be positive"}
		}
		c.Workers = n
		return nil
	}
}
