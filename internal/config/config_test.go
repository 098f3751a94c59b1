package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/repox/compiler/gen"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"./..."}, c.Patterns)
	assert.Equal(t, "Code generated by repox. DO NOT EDIT.", c.Header)
	assert.Empty(t, c.Features)
	assert.Zero(t, c.Workers)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "console", c.Log.Encoding)
	assert.Equal(t, 200*time.Millisecond, c.Watch.Debounce)
}

func TestParse(t *testing.T) {
	t.Setenv("REPOX_TEST_TAGS", "integration")
	c, err := Parse([]byte(`
patterns: ["./store/...", "./billing"]
build_flags: ["-tags=${REPOX_TEST_TAGS}"]
features: [reflectconfig, descriptor]
workers: 3
log:
  level: debug
  encoding: json
watch:
  debounce: 1s
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"./store/...", "./billing"}, c.Patterns)
	assert.Equal(t, []string{"-tags=integration"}, c.BuildFlags)
	assert.Equal(t, []string{"reflectconfig", "descriptor"}, c.Features)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, Log{Level: "debug", Encoding: "json"}, c.Log)
	assert.Equal(t, time.Second, c.Watch.Debounce)

	gc, err := gen.NewConfig(c.Options()...)
	require.NoError(t, err)
	assert.True(t, gc.HasFeature("reflectconfig"))
	assert.True(t, gc.HasFeature("descriptor"))
	assert.Equal(t, 3, gc.Workers)

	lc := c.LoadConfig(nil)
	assert.Equal(t, []string{"-tags=integration"}, lc.BuildFlags)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		contains string
	}{
		{"Feature", `features: [privacy]`, "Config.Features[0]: oneof"},
		{"Workers", `workers: -2`, "Config.Workers: gte=0"},
		{"Level", "log:\n  level: trace", "Config.Log.Level: oneof"},
		{"Encoding", "log:\n  encoding: pretty", "Config.Log.Encoding: oneof"},
		{"Pattern", `patterns: [""]`, "Config.Patterns[0]: required"},
		{"Syntax", `patterns: [`, "config: decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Workers)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	t.Chdir(dir)
	c, err = Load("")
	require.NoError(t, err)
	assert.Zero(t, c.Workers)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("workers: 5\n"), 0o644))
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Workers)
}

func TestLogger(t *testing.T) {
	l, err := Log{Level: "warn", Encoding: "json"}.Logger()
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
	assert.True(t, l.Core().Enabled(1))

	_, err = Log{Level: "loud", Encoding: "json"}.Logger()
	assert.Error(t, err)
}
