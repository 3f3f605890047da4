package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magpie/pkg/errors"
)

func TestNewManager(t *testing.T) {
	t.Run("creates the directory tree", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "downloads")

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, manager.OutputDir())

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory is fine", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewManager(dir)
		require.NoError(t, err)
	})

	t.Run("path collides with a regular file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		manager, err := NewManager(file)
		assert.Nil(t, manager)
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindSetup))
	})
}

func TestSave(t *testing.T) {
	t.Run("writes the file contents", func(t *testing.T) {
		dir := t.TempDir()
		manager, err := NewManager(dir)
		require.NoError(t, err)

		err = manager.Save(strings.NewReader("image bytes"), "2024-03-01T12:30:45Z user 123 pic.jpg")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "2024-03-01T12:30:45Z user 123 pic.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "image bytes", string(data))
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		dir := t.TempDir()
		manager, err := NewManager(dir)
		require.NoError(t, err)

		require.NoError(t, manager.Save(strings.NewReader("x"), "pic.jpg"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "pic.jpg", entries[0].Name())
	})

	t.Run("same name overwrites silently", func(t *testing.T) {
		dir := t.TempDir()
		manager, err := NewManager(dir)
		require.NoError(t, err)

		require.NoError(t, manager.Save(strings.NewReader("first"), "pic.jpg"))
		require.NoError(t, manager.Save(strings.NewReader("second"), "pic.jpg"))

		data, err := os.ReadFile(filepath.Join(dir, "pic.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("unwritable destination is a local io error", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permission checks do not apply to root")
		}

		dir := t.TempDir()
		manager, err := NewManager(dir)
		require.NoError(t, err)
		require.NoError(t, os.Chmod(dir, 0500))
		t.Cleanup(func() { os.Chmod(dir, 0755) })

		err = manager.Save(strings.NewReader("x"), "pic.jpg")
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindLocalIO))
	})
}
