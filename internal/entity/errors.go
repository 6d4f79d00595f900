package entity

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrInvalidImage     = errors.New("invalid image")
	ErrProcessingFailed = errors.New("processing failed")
)
