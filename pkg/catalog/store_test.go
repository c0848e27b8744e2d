package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, path, s.Path())

	updated := `[{"id": "PLANT003", "name": "Neem", "description": "Family: Meliaceae"}]`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	require.NoError(t, s.Reload())

	assert.Equal(t, []string{"PLANT003"}, s.IDs())
	_, ok := s.Find("PLANT001")
	assert.False(t, ok)
}

func TestStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	before := s.Current()

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "PLANT001"`), 0o644))
	assert.Error(t, s.Reload())
	assert.Same(t, before, s.Current())

	p, ok := s.Find("PLANT002")
	require.True(t, ok)
	assert.Equal(t, "Tulsi", p.Name)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
