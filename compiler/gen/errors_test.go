package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodError(t *testing.T) {
	m := &Method{Name: "FindByEmail", Pos: "repo.go:12:2"}

	t.Run("Error message with all fields", func(t *testing.T) {
		err := NewMethodError(UnhandledMethod, m, "no rule for %s", m.Name)
		err.Interface = "UserRepository"

		assert.Equal(t, "repox: repo.go:12:2: UserRepository.FindByEmail: no rule for FindByEmail", err.Error())
	})

	t.Run("Error message without position", func(t *testing.T) {
		err := NewMethodError(ParamCountMismatch, &Method{Name: "Find"}, "want 1")
		assert.Equal(t, "repox: Find: want 1", err.Error())
	})

	t.Run("Is matches the kind sentinel", func(t *testing.T) {
		err := NewMethodError(VoidReturnRequired, m, "x")
		assert.True(t, errors.Is(err, ErrVoidReturnRequired))
		assert.False(t, errors.Is(err, ErrUnhandledMethod))
		assert.True(t, IsMethodError(err))
		assert.False(t, IsMethodError(errors.New("x")))
	})

	t.Run("Kinds", func(t *testing.T) {
		for k := EmptyQueryIdentifier; k <= UnhandledMethod; k++ {
			assert.NotEmpty(t, k.String())
			assert.NotNil(t, k.Sentinel(), k.String())
		}
		assert.Equal(t, "DiagnosticKind(99)", DiagnosticKind(99).String())
		assert.Nil(t, DiagnosticKind(99).Sentinel())
	})
}

func TestInterfaceError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("unknown mode")
		err := NewInterfaceError("UserRepository", "repo.go:3:6", "invalid session binding", cause)

		assert.Equal(t, "repox: repo.go:3:6: interface UserRepository: invalid session binding: unknown mode", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewInterfaceError("UserRepository", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrInvalidInterface", func(t *testing.T) {
		err := NewInterfaceError("UserRepository", "", "x", nil)
		assert.True(t, errors.Is(err, ErrInvalidInterface))
		assert.True(t, IsInterfaceError(err))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("Workers", -1, "workers cannot be negative")

		assert.Contains(t, err.Error(), "repox: config error")
		assert.Contains(t, err.Error(), `"Workers"`)
		assert.Contains(t, err.Error(), "value: -1")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Logger", nil, "logger cannot be nil")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := NewConfigError("Workers", nil, "")
		assert.True(t, errors.Is(err, ErrMissingConfig))
		assert.True(t, IsConfigError(err))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewGenerationError("UserRepository", "user_repository_repox.go", cause)

		assert.Equal(t, "repox: generation failed for UserRepository (user_repository_repox.go): disk full", err.Error())
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("Is matches ErrGenerationFailed", func(t *testing.T) {
		err := NewGenerationError("", "", nil)
		assert.Equal(t, "repox: generation failed", err.Error())
		assert.True(t, errors.Is(err, ErrGenerationFailed))
		assert.True(t, IsGenerationError(err))
	})
}

func TestDiagnostics(t *testing.T) {
	var d Diagnostics
	assert.NoError(t, d.Err())

	d.Add(NewMethodError(UnhandledMethod, &Method{Name: "Count"}, "x"))
	d.Add(NewMethodError(ParamCountMismatch, &Method{Name: "Find"}, "y"))
	d.Add(NewMethodError(UnhandledMethod, &Method{Name: "Total"}, "z"))

	assert.Len(t, d.Of(UnhandledMethod), 2)
	assert.Len(t, d.For("Find"), 1)
	assert.Empty(t, d.For("Save"))

	err := d.Err()
	assert.ErrorIs(t, err, ErrUnhandledMethod)
	assert.ErrorIs(t, err, ErrParamCountMismatch)
	assert.NotErrorIs(t, err, ErrVoidReturnRequired)
}
