package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantguide/pkg/config"
)

func TestPlantURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{base: "http://192.168.1.33:4200", want: "http://192.168.1.33:4200/plant/PLANT001"},
		{base: "http://192.168.1.33:4200/", want: "http://192.168.1.33:4200/plant/PLANT001"},
		{base: "https://garden.example/guide", want: "https://garden.example/guide/plant/PLANT001"},
		{base: "garden.example", wantErr: true},
		{base: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := plantURL(tt.base, "PLANT001")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "qrcodes")

	n, err := generate([]string{"PLANT001", "PLANT002"}, config.QRConfig{
		BaseURL:   "http://localhost:4200",
		OutputDir: dir,
		Size:      128,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"PLANT001", "PLANT002"} {
		data, err := os.ReadFile(filepath.Join(dir, id+".png"))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "%s is not a PNG", id)
	}
}

func TestGenerate_InvalidBaseURL(t *testing.T) {
	_, err := generate([]string{"PLANT001"}, config.QRConfig{
		BaseURL:   "not a url",
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)
}

func TestGenerate_RejectsPathIDs(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "qrcodes")

	for _, id := range []string{"../escape", "a/b", `a\b`, "..", ""} {
		t.Run(id, func(t *testing.T) {
			n, err := generate([]string{id}, config.QRConfig{
				BaseURL:   "http://localhost:4200",
				OutputDir: out,
			})
			assert.Error(t, err)
			assert.Zero(t, n)
		})
	}

	_, err := os.Stat(filepath.Join(root, "escape.png"))
	assert.True(t, os.IsNotExist(err))
}
