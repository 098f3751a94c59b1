// Package config loads the configuration of the repox command from a
// YAML file.
//
// Environment variables referenced as ${NAME} are expanded before the file
// is decoded, after loading a .env file from the working directory if one
// exists. Fields left out of the file take the value of their `default`
// tag, and the result is validated with go-playground/validator.
//
// Example repox.yaml:
//
//	patterns: ["./internal/store/..."]
//	features: [reflectconfig]
//	workers: 4
//	log:
//	  level: debug
//	  encoding: json
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/load"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "repox.yaml"

// Config is the configuration of a generation run.
type Config struct {
	// Patterns select the packages holding repository interfaces.
	Patterns []string `yaml:"patterns" default:"[\"./...\"]" validate:"min=1,dive,required"`
	// Dir is the directory patterns are resolved in.
	Dir string `yaml:"dir"`
	// BuildFlags are passed to the build system, e.g. -tags.
	BuildFlags []string `yaml:"build_flags"`
	// Header is written at the top of each generated file.
	Header string `yaml:"header" default:"Code generated by repox. DO NOT EDIT."`
	// Features enables optional generator features.
	Features []string `yaml:"features" validate:"dive,oneof=reflectconfig descriptor"`
	// Workers bounds the interfaces generated concurrently. Zero uses
	// one worker per CPU.
	Workers int `yaml:"workers" validate:"gte=0"`

	Log   Log   `yaml:"log"`
	Watch Watch `yaml:"watch"`
}

// Log configures the logger of the command.
type Log struct {
	// Level is the minimum level to emit.
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	// Encoding is the log format.
	Encoding string `yaml:"encoding" default:"console" validate:"oneof=console json"`
}

// Watch configures the watch mode of the generate command.
type Watch struct {
	// Debounce is how long the watcher waits for more changes before
	// running again.
	Debounce time.Duration `yaml:"debounce" default:"200ms" validate:"gt=0"`
}

// Load reads the configuration file at path. An empty path loads
// DefaultFile when it exists, and the defaults otherwise.
func Load(path string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	var data []byte
	switch {
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		data = b
	default:
		b, err := os.ReadFile(DefaultFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", DefaultFile, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes, completes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config: set defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the field constraints of c.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	failed := make([]string, 0, len(errs))
	for _, fe := range errs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}
	return fmt.Errorf("config: invalid fields: %s", strings.Join(failed, ", "))
}

// Options returns the generator options of c.
func (c *Config) Options() []gen.Option {
	return []gen.Option{
		gen.WithHeader(c.Header),
		gen.WithFeatureNames(c.Features...),
		gen.WithWorkers(c.Workers),
	}
}

// LoadConfig returns the loader configuration of c.
func (c *Config) LoadConfig(log *zap.Logger) *load.Config {
	return &load.Config{
		Dir:        c.Dir,
		BuildFlags: c.BuildFlags,
		Logger:     log,
	}
}

// Logger builds the logger described by l. Logs go to stderr, leaving
// stdout to the command output.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	enc := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "time",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if l.Encoding == "console" {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc := zap.Config{
		Level:            level,
		Encoding:         l.Encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zc.Build()
}
