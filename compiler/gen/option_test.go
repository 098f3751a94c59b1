package gen

import (
	"runtime"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEmitter struct{}

func (stubEmitter) Emit(impl *Implementation) (*jen.File, error) {
	return jen.NewFile(impl.PkgName), nil
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "Code generated by repox. DO NOT EDIT.", c.Header)
	assert.Empty(t, c.Features)
	assert.Equal(t, runtime.GOMAXPROCS(0), c.workers())
	assert.NotNil(t, c.logger())
	assert.Nil(t, c.Emitter)
}

func TestWithHeader(t *testing.T) {
	t.Run("sets header", func(t *testing.T) {
		c := &Config{}
		err := WithHeader("Custom header")(c)

		require.NoError(t, err)
		assert.Equal(t, "Custom header", c.Header)
	})

	t.Run("empty header is allowed", func(t *testing.T) {
		c := &Config{Header: "existing"}
		err := WithHeader("")(c)

		require.NoError(t, err)
		assert.Equal(t, "", c.Header)
	})
}

func TestWithFeatures(t *testing.T) {
	t.Run("adds single feature", func(t *testing.T) {
		c := &Config{}
		err := WithFeatures(FeatureReflectConfig)(c)

		require.NoError(t, err)
		assert.Equal(t, 1, len(c.Features))
		assert.Equal(t, "reflectconfig", c.Features[0].Name)
	})

	t.Run("skips enabled features", func(t *testing.T) {
		c := &Config{Features: []Feature{FeatureDescriptor}}
		err := WithFeatures(FeatureDescriptor, FeatureReflectConfig)(c)

		require.NoError(t, err)
		assert.Equal(t, 2, len(c.Features))
	})
}

func TestWithFeatureNames(t *testing.T) {
	t.Run("enables known features", func(t *testing.T) {
		c := &Config{}
		err := WithFeatureNames("descriptor", "reflectconfig", "descriptor")(c)

		require.NoError(t, err)
		assert.Equal(t, 2, len(c.Features))
		assert.True(t, c.HasFeature("descriptor"))
		assert.True(t, c.HasFeature("reflectconfig"))
	})

	t.Run("rejects unknown features", func(t *testing.T) {
		c := &Config{}
		err := WithFeatureNames("privacy")(c)

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Empty(t, c.Features)
	})
}

func TestFeatureEnabled(t *testing.T) {
	c := MustNewConfig(WithFeatures(FeatureDescriptor))

	enabled, err := c.FeatureEnabled("descriptor")
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = c.FeatureEnabled("reflectconfig")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = c.FeatureEnabled("privacy")
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestWithWorkers(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithWorkers(4)(c))
	assert.Equal(t, 4, c.workers())

	require.NoError(t, WithWorkers(0)(c))
	assert.Equal(t, runtime.GOMAXPROCS(0), c.workers())

	err := WithWorkers(-1)(c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestWithLogger(t *testing.T) {
	c := &Config{}
	l := zap.NewExample()
	require.NoError(t, WithLogger(l)(c))
	assert.Same(t, l, c.logger())

	err := WithLogger(nil)(c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestWithEmitter(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithEmitter(stubEmitter{})(c))
	assert.Equal(t, stubEmitter{}, c.Emitter)

	err := WithEmitter(nil)(c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestConfigApply(t *testing.T) {
	t.Run("applies multiple options", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(
			WithWorkers(2),
			WithHeader("Custom"),
		)

		require.NoError(t, err)
		assert.Equal(t, 2, c.Workers)
		assert.Equal(t, "Custom", c.Header)
	})

	t.Run("stops on first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(
			WithWorkers(-1),
			WithHeader("Custom"),
		)

		require.Error(t, err)
		assert.Empty(t, c.Header)
	})
}

func TestConfigApplyAll(t *testing.T) {
	t.Run("collects all errors", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(
			WithWorkers(-1),
			WithLogger(nil),
			WithHeader("Custom"),
		)

		require.Error(t, err)
		unwrapper, ok := err.(interface{ Unwrap() []error })
		require.True(t, ok, "error should implement Unwrap() []error")
		assert.Equal(t, 2, len(unwrapper.Unwrap()))
		assert.Equal(t, "Custom", c.Header)
	})

	t.Run("returns nil when all succeed", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(
			WithWorkers(1),
			WithHeader("Custom"),
		)

		require.NoError(t, err)
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("creates config with options", func(t *testing.T) {
		c, err := NewConfig(WithWorkers(3))

		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, 3, c.Workers)
		assert.Equal(t, defaultHeader, c.Header)
	})

	t.Run("returns error on invalid option", func(t *testing.T) {
		c, err := NewConfig(WithWorkers(-1))

		require.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestMustNewConfig(t *testing.T) {
	t.Run("returns config on success", func(t *testing.T) {
		c := MustNewConfig(WithHeader("Custom"))

		require.NotNil(t, c)
		assert.Equal(t, "Custom", c.Header)
	})

	t.Run("panics on error", func(t *testing.T) {
		assert.Panics(t, func() {
			MustNewConfig(WithWorkers(-1))
		})
	})
}
