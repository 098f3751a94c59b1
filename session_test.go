package repox_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/repox"
	"github.com/syssam/repox/sessiontest"
)

type account struct {
	ID   int64
	Name string
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	t.Run("Absent", func(t *testing.T) {
		s := sessiontest.New()
		v, err := repox.OfNullable(repox.Find[account](ctx, s, 123))
		require.NoError(t, err)
		assert.False(t, v.Valid)

		calls := s.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, sessiontest.OpFind, calls[0].Op)
		assert.Equal(t, reflect.TypeFor[account](), calls[0].Type)
		assert.Equal(t, 123, calls[0].Key)
	})

	t.Run("Present", func(t *testing.T) {
		s := sessiontest.New()
		s.FindFunc = func(_ context.Context, _ reflect.Type, key any) (any, error) {
			return &account{ID: int64(key.(int)), Name: "a"}, nil
		}
		v, err := repox.OfNullable(repox.Find[account](ctx, s, 7))
		require.NoError(t, err)
		assert.Equal(t, sql.Null[account]{V: account{ID: 7, Name: "a"}, Valid: true}, v)
	})

	t.Run("Value", func(t *testing.T) {
		s := sessiontest.New()
		s.FindFunc = func(context.Context, reflect.Type, any) (any, error) {
			return account{ID: 1}, nil
		}
		a, err := repox.Find[account](ctx, s, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.ID)
	})

	t.Run("WrongType", func(t *testing.T) {
		s := sessiontest.New()
		s.FindFunc = func(context.Context, reflect.Type, any) (any, error) {
			return "nope", nil
		}
		_, err := repox.Find[account](ctx, s, 1)
		assert.True(t, repox.IsResultTypeError(err))
	})

	t.Run("Error", func(t *testing.T) {
		boom := errors.New("boom")
		s := sessiontest.New()
		s.FindFunc = func(context.Context, reflect.Type, any) (any, error) {
			return nil, boom
		}
		v, err := repox.OfNullable(repox.Find[account](ctx, s, 1))
		assert.ErrorIs(t, err, boom)
		assert.False(t, v.Valid)
	})
}

func TestValueOf(t *testing.T) {
	_, err := repox.ValueOf[account](nil, nil)
	assert.True(t, repox.IsNotFound(err))
	assert.EqualError(t, err, "repox: account not found")

	a, err := repox.ValueOf(&account{ID: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.ID)
}

func TestIsNew(t *testing.T) {
	id := func(v any) *sessiontest.Session {
		s := sessiontest.New()
		s.IdentifierFunc = func(any) (any, error) { return v, nil }
		return s
	}
	var nilPtr *int64
	one := int64(1)
	tests := []struct {
		name string
		id   any
		want bool
	}{
		{"Nil", nil, true},
		{"NilPointer", nilPtr, true},
		{"ZeroInt", 0, true},
		{"ZeroInt64", int64(0), true},
		{"ZeroUint", uint32(0), true},
		{"ZeroFloat", 0.0, true},
		{"NilUUID", uuid.Nil, true},
		{"InvalidNull", sql.NullInt64{}, true},
		{"Int", 5, false},
		{"Fraction", 0.5, false},
		{"Pointer", &one, false},
		{"UUID", uuid.New(), false},
		{"ValidNull", sql.NullInt64{Int64: 3, Valid: true}, false},
		{"String", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repox.IsNew(id(tt.id), &account{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		s := sessiontest.New()
		s.IdentifierFunc = func(e any) (any, error) { return e.(*account).ID, nil }
		in := &account{Name: "new"}
		out, err := repox.Save(ctx, s, in)
		require.NoError(t, err)
		assert.Same(t, in, out)
		assert.Equal(t, []string{sessiontest.OpPersist}, s.Ops())
	})

	t.Run("Existing", func(t *testing.T) {
		s := sessiontest.New()
		s.IdentifierFunc = func(e any) (any, error) { return e.(*account).ID, nil }
		managed := &account{ID: 9, Name: "managed"}
		s.MergeFunc = func(context.Context, any) (any, error) { return managed, nil }
		in := &account{ID: 9, Name: "detached"}
		out, err := repox.Save(ctx, s, in)
		require.NoError(t, err)
		assert.Same(t, managed, out)
		assert.NotSame(t, in, out)
		assert.Equal(t, []string{sessiontest.OpMerge}, s.Ops())
	})

	t.Run("IdentifierError", func(t *testing.T) {
		boom := errors.New("boom")
		s := sessiontest.New()
		s.IdentifierFunc = func(any) (any, error) { return nil, boom }
		_, err := repox.Save(ctx, s, &account{})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, s.Ops())
	})
}

func TestMerge(t *testing.T) {
	s := sessiontest.New()
	s.MergeFunc = func(context.Context, any) (any, error) { return account{ID: 3}, nil }
	out, err := repox.Merge(context.Background(), s, account{ID: 3, Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, account{ID: 3}, out)
}

func TestFinally(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var released int
		run := func() (err error) {
			defer repox.Finally(&err, func() error { released++; return nil })
			return nil
		}
		assert.NoError(t, run())
		assert.Equal(t, 1, released)
	})

	t.Run("Failure", func(t *testing.T) {
		primary := errors.New("primary")
		var released int
		run := func() (err error) {
			defer repox.Finally(&err, func() error { released++; return nil })
			return primary
		}
		assert.ErrorIs(t, run(), primary)
		assert.Equal(t, 1, released)
	})

	t.Run("ReleaseError", func(t *testing.T) {
		primary, flush := errors.New("primary"), errors.New("flush")
		run := func() (err error) {
			defer repox.Finally(&err, func() error { return flush })
			return primary
		}
		err := run()
		assert.ErrorIs(t, err, primary)
		assert.ErrorIs(t, err, flush)
	})

	t.Run("Panic", func(t *testing.T) {
		var released int
		run := func() (err error) {
			defer repox.Finally(&err, func() error { released++; return nil })
			panic("boom")
		}
		assert.PanicsWithValue(t, "boom", func() { _ = run() })
		assert.Equal(t, 1, released)
	})
}
