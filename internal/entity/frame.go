package entity

import (
	"fmt"
	"strings"
	"time"
)

type Shape string

const (
	ShapeSquare Shape = "square"
	ShapeCircle Shape = "circle"

	// ShapeBoth asks for the square and the circle of the same upload.
	ShapeBoth Shape = "both"
)

// ParseShape accepts the form value of the shape selector; empty means square.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapeSquare:
		return ShapeSquare, nil
	case ShapeCircle:
		return ShapeCircle, nil
	case ShapeBoth:
		return ShapeBoth, nil
	default:
		return "", fmt.Errorf("%w: unknown shape %q", ErrInvalidInput, s)
	}
}

// Expand lists the single shapes to render, in display order.
func (s Shape) Expand() []Shape {
	if s == ShapeBoth {
		return []Shape{ShapeSquare, ShapeCircle}
	}
	return []Shape{s}
}

// Filename is the download name offered for a result of this shape.
func (s Shape) Filename() string {
	if s == ShapeCircle {
		return "mirai_icon_circle.png"
	}
	return "mirai_image_framed.png"
}

type FrameResult struct {
	ID          string `json:"id"`
	Shape       Shape  `json:"shape"`
	Image       []byte `json:"-"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Cached      bool   `json:"cached"`
}

// FrameEvent is published once per successful frame request.
type FrameEvent struct {
	ID          string    `json:"id"`
	Shape       Shape     `json:"shape"`
	InputBytes  int       `json:"input_bytes"`
	OutputBytes int       `json:"output_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	DurationMs  int64     `json:"duration_ms"`
	Cached      bool      `json:"cached"`
	CreatedAt   time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
