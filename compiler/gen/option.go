package gen

import (
	"errors"
	"runtime"
	"slices"

	"go.uber.org/zap"
)

// defaultHeader is the comment placed at the top of generated files.
const defaultHeader = "Code generated by repox. DO NOT EDIT."

// Config holds the configuration of a generation run.
type Config struct {
	// Header is the comment placed at the top of each generated file.
	Header string
	// Features lists the enabled feature-flags.
	Features []Feature
	// Workers bounds the number of interfaces processed concurrently.
	Workers int
	// Logger receives generation events. Nil discards them.
	Logger *zap.Logger
	// Emitter renders implementations into Go files.
	Emitter Emitter
}

// DefaultConfig returns a Config with the default header and the
// features enabled by default.
func DefaultConfig() *Config {
	c := &Config{Header: defaultHeader}
	for _, f := range AllFeatures {
		if f.Default {
			c.Features = append(c.Features, f)
		}
	}
	return c
}

// FeatureEnabled reports if the given feature name is enabled.
// It returns an error if the feature name is unknown.
func (c *Config) FeatureEnabled(name string) (bool, error) {
	if !slices.ContainsFunc(AllFeatures, func(f Feature) bool { return f.Name == name }) {
		return false, NewConfigError("Feature", name, "unknown feature")
	}
	return c.HasFeature(name), nil
}

// HasFeature reports if the given feature name is enabled.
func (c *Config) HasFeature(name string) bool {
	return slices.ContainsFunc(c.Features, func(f Feature) bool { return f.Name == name })
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithFeatures enables the given features.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		for _, f := range features {
			if !c.HasFeature(f.Name) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithFeatureNames enables the features with the given names.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			i := slices.IndexFunc(AllFeatures, func(f Feature) bool { return f.Name == name })
			if i == -1 {
				return NewConfigError("Features", name, "unknown feature")
			}
			if !c.HasFeature(name) {
				c.Features = append(c.Features, AllFeatures[i])
			}
		}
		return nil
	}
}

// WithWorkers bounds the number of interfaces processed concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger receiving generation events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithEmitter sets the emitter rendering implementations.
func WithEmitter(e Emitter) Option {
	return func(c *Config) error {
		if e == nil {
			return NewConfigError("Emitter", nil, "emitter cannot be nil")
		}
		c.Emitter = e
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options, starting from
// DefaultConfig.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
