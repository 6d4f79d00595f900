// Package compositor frames uploaded images with a solid border and
// optionally masks them into an anti-aliased circle.
//
// All resampling uses the imaging Linear filter: a separable triangle
// filter whose support widens with the scale ratio when shrinking, with
// edge pixels clamped and channels weighted by alpha.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/mirai-frame/internal/entity"
)

type Compositor interface {
	// Composite decodes input, applies the shape transform and returns PNG bytes.
	Composite(input []byte, shape entity.Shape) ([]byte, error)
	Render(input []byte, shape entity.Shape) (*image.NRGBA, error)
	Square(img image.Image) *image.NRGBA
	Circle(img image.Image) *image.NRGBA
	Fingerprint() string
}

type compositor struct {
	opts        Options
	border      color.NRGBA
	fingerprint string
}

func NewCompositor(opts Options) (Compositor, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	border, err := ParseBorderColor(opts.BorderColor)
	if err != nil {
		return nil, err
	}
	return &compositor{opts: opts, border: border, fingerprint: opts.fingerprint()}, nil
}

func (c *compositor) Composite(input []byte, shape entity.Shape) ([]byte, error) {
	img, err := c.Render(input, shape)
	if err != nil {
		return nil, err
	}
	return Encode(img)
}

func (c *compositor) Render(input []byte, shape entity.Shape) (out *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", entity.ErrProcessingFailed, r)
		}
	}()

	if shape != entity.ShapeSquare && shape != entity.ShapeCircle {
		return nil, fmt.Errorf("%w: unknown shape %q", entity.ErrInvalidInput, shape)
	}

	img, err := Decode(input, c.opts.MaxPixels)
	if err != nil {
		return nil, err
	}

	if shape == entity.ShapeCircle {
		return c.Circle(img), nil
	}
	return c.Square(img), nil
}

// Square fits img within SquareMaxSize and surrounds it with a
// BorderWidth-thick band of the border color.
func (c *compositor) Square(img image.Image) *image.NRGBA {
	src := fitWithin(img, c.opts.SquareMaxSize)
	b := c.opts.BorderWidth
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	dst := imaging.New(w+2*b, h+2*b, c.border)
	dst = imaging.Overlay(dst, src, image.Pt(b, b), 1.0)

	if c.opts.Overlay != nil {
		frame := imaging.Resize(c.opts.Overlay, dst.Bounds().Dx(), dst.Bounds().Dy(), imaging.Linear)
		dst = imaging.Overlay(dst, frame, image.Pt(0, 0), 1.0)
	}
	return dst
}

// Circle renders at CircleTargetSize*SupersampleFactor, masks a bordered
// disc and downsamples to CircleTargetSize.
func (c *compositor) Circle(img image.Image) *image.NRGBA {
	ss := c.opts.SupersampleFactor
	target := c.opts.CircleTargetSize
	r := target * ss

	// Cropping before the resize keeps the intermediate at most r×r even
	// for extreme aspect ratios.
	side := min(img.Bounds().Dx(), img.Bounds().Dy())
	src := imaging.Resize(imaging.CropCenter(img, side, side), r, r, imaging.Linear)
	out := image.NewNRGBA(image.Rect(0, 0, r, r))

	half := float64(r) / 2
	inner := half - float64(c.opts.BorderWidth*ss)
	innerSq := inner * inner
	outerSq := half * half
	border := []uint8{c.border.R, c.border.G, c.border.B, 0xff}

	for y := 0; y < r; y++ {
		dy := float64(y) - half
		for x := 0; x < r; x++ {
			dx := float64(x) - half
			d2 := dx*dx + dy*dy

			i := out.PixOffset(x, y)
			switch {
			case d2 <= innerSq:
				j := src.PixOffset(x, y)
				copy(out.Pix[i:i+4], src.Pix[j:j+4])
			case d2 <= outerSq:
				copy(out.Pix[i:i+4], border)
			}
		}
	}

	if ss == 1 {
		return out
	}
	return imaging.Resize(out, target, target, imaging.Linear)
}

func (c *compositor) Fingerprint() string {
	return c.fingerprint
}

// fitWithin scales img down so its larger side equals bound. Images that
// already fit are returned as a zero-origin copy.
func fitWithin(img image.Image, bound int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= bound && h <= bound {
		return imaging.Clone(img)
	}

	scale := float64(bound) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return imaging.Resize(img, nw, nh, imaging.Linear)
}

// Encode serializes img as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", entity.ErrProcessingFailed, err)
	}
	return buf.Bytes(), nil
}
