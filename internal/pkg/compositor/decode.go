package compositor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/mirai-frame/internal/entity"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/storage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads an image from input without modifying it. The header is
// checked first so oversized rasters are rejected before allocation.
func Decode(input []byte, maxPixels int) (image.Image, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrInvalidImage)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty raster %dx%d", entity.ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels",
			entity.ErrPayloadTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}
	return img, nil
}

// LoadOverlay reads the optional frame overlay from the asset store.
func LoadOverlay(assets storage.FileStorage, path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	if !assets.Exists(path) {
		return nil, fmt.Errorf("frame overlay %q not found", path)
	}

	reader, err := assets.Get(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	img, err := imaging.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode frame overlay %q: %w", path, err)
	}
	return img, nil
}
