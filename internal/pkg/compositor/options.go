package compositor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Options holds the fixed visual constants of the compositor.
type Options struct {
	BorderColor       string
	BorderWidth       int
	SquareMaxSize     int
	CircleTargetSize  int
	SupersampleFactor int

	// MaxPixels bounds width*height of a decoded input. Zero disables the check.
	MaxPixels int

	// Overlay is drawn over the whole square output when set.
	Overlay image.Image
}

func DefaultOptions() Options {
	return Options{
		BorderColor:       "#89C997",
		BorderWidth:       20,
		SquareMaxSize:     800,
		CircleTargetSize:  400,
		SupersampleFactor: 4,
		MaxPixels:         40_000_000,
	}
}

func (o Options) validate() error {
	if o.BorderWidth < 0 {
		return fmt.Errorf("border width must not be negative, got %d", o.BorderWidth)
	}
	if o.SquareMaxSize <= 0 {
		return fmt.Errorf("square max size must be positive, got %d", o.SquareMaxSize)
	}
	if o.CircleTargetSize <= 0 {
		return fmt.Errorf("circle target size must be positive, got %d", o.CircleTargetSize)
	}
	if o.SupersampleFactor < 1 {
		return fmt.Errorf("supersample factor must be at least 1, got %d", o.SupersampleFactor)
	}
	if 2*o.BorderWidth > o.CircleTargetSize {
		return fmt.Errorf("border width %d does not fit a %dpx circle", o.BorderWidth, o.CircleTargetSize)
	}
	if o.MaxPixels < 0 {
		return fmt.Errorf("max pixels must not be negative, got %d", o.MaxPixels)
	}
	return nil
}

// fingerprint identifies the options that change the rendered output.
// The overlay contributes a digest of its pixels, so it is computed once
// per compositor.
func (o Options) fingerprint() string {
	overlay := "none"
	if o.Overlay != nil {
		b := o.Overlay.Bounds()
		sum := sha256.Sum256(imaging.Clone(o.Overlay).Pix)
		overlay = fmt.Sprintf("%dx%d:%s", b.Dx(), b.Dy(), hex.EncodeToString(sum[:8]))
	}
	return fmt.Sprintf("%s-%d-%d-%d-%d-%s",
		o.BorderColor, o.BorderWidth, o.SquareMaxSize, o.CircleTargetSize, o.SupersampleFactor, overlay)
}

// ParseBorderColor parses a "#RRGGBB" hex string into an opaque color.
func ParseBorderColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid border color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
