package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFile(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "usage.log")

		require.NoError(t, AtomicWriteFile(filename, []byte("hello world"), 0644))

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
	})

	t.Run("overwrites previous content", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "usage.log")
		require.NoError(t, os.WriteFile(filename, []byte("a much longer previous record\n"), 0644))

		require.NoError(t, AtomicWriteFile(filename, []byte("new\n"), 0644))

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "new\n", string(data))
	})

	t.Run("leaves no temporary files behind", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "usage.log")

		require.NoError(t, AtomicWriteFile(filename, []byte("x"), 0644))
		require.NoError(t, AtomicWriteFile(filename, []byte("y"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "usage.log", entries[0].Name())
	})

	t.Run("write to nested directory", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "a", "b", "c", "usage.log")

		require.NoError(t, AtomicWriteFile(filename, []byte("nested hello"), 0644))

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "nested hello", string(data))
	})

	t.Run("directory creation failure", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("Skipping directory-permission failure test on Windows")
		}
		// A regular file in place of a parent directory makes MkdirAll fail,
		// even when running as root.
		parent := filepath.Join(t.TempDir(), "parent")
		require.NoError(t, os.WriteFile(parent, []byte("file"), 0644))
		filename := filepath.Join(parent, "child", "usage.log")

		err := AtomicWriteFile(filename, []byte("data"), 0644)
		require.Error(t, err)

		_, statErr := os.Stat(filename)
		assert.Error(t, statErr)
	})

	t.Run("rename failure and cleanup", func(t *testing.T) {
		// A directory at the target path makes the rename fail.
		filename := filepath.Join(t.TempDir(), "usage.log")
		require.NoError(t, os.Mkdir(filename, 0755))

		err := AtomicWriteFile(filename, []byte("data"), 0644)
		require.Error(t, err)

		var renameErr RenameError
		require.True(t, errors.As(err, &renameErr), "expected RenameError, got %T: %v", err, err)
		_, statErr := os.Stat(renameErr.TempPath())
		assert.True(t, os.IsNotExist(statErr), "temporary file %q was not cleaned up", renameErr.TempPath())
	})
}
