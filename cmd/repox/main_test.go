package main

import (
	"bytes"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"store/user.go", fsnotify.Write, true},
		{"store/user.go", fsnotify.Create, true},
		{"store/user.go", fsnotify.Remove, true},
		{"store/user.go", fsnotify.Chmod, false},
		{"store/user_test.go", fsnotify.Write, false},
		{"store/user_repository_repox.go", fsnotify.Write, false},
		{"store/repox.yaml", fsnotify.Write, false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(fsnotify.Event{Name: tt.name, Op: tt.op}))
		})
	}
}

func TestGenerateCommandVerify(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "--verify", "../../compiler/load/testdata/repo"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		verify = false
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should exist, but does not")
	assert.Contains(t, out.String(), "UserRepository")
}

func TestGenerateCommandFlags(t *testing.T) {
	rootCmd.SetArgs([]string{"generate", "--verify", "--watch", "./..."})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		verify, watch = false, false
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
