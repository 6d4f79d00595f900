package compositor

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ds124wfegd/mirai-frame/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBorderColor(t *testing.T) {
	tests := []struct {
		hex  string
		want color.NRGBA
	}{
		{hex: "#89C997", want: color.NRGBA{R: 0x89, G: 0xC9, B: 0x97, A: 0xff}},
		{hex: "#89c997", want: color.NRGBA{R: 0x89, G: 0xC9, B: 0x97, A: 0xff}},
		{hex: "#000000", want: color.NRGBA{A: 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := ParseBorderColor(tt.hex)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBorderColorInvalid(t *testing.T) {
	_, err := ParseBorderColor("89C997zz")
	assert.Error(t, err)
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.png", encodePNG(t, solidImage(12, 8, green)))
	writeFile(t, dir, "broken.png", []byte("nope"))
	assets := storage.NewFileStorage(dir)

	img, err := LoadOverlay(assets, "default.png")
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())

	img, err = LoadOverlay(assets, "")
	assert.NoError(t, err)
	assert.Nil(t, img)

	_, err = LoadOverlay(assets, "missing.png")
	assert.Error(t, err)

	_, err = LoadOverlay(assets, "broken.png")
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}
