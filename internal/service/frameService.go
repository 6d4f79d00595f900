package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"time"

	"github.com/ds124wfegd/mirai-frame/internal/entity"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/compositor"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *frameService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Frame renders upload in the requested shape. Cache and event failures are
// logged and never fail the request.
func (s *frameService) Frame(ctx context.Context, upload []byte, shape entity.Shape) (*entity.FrameResult, error) {
	if len(upload) == 0 {
		return nil, fmt.Errorf("%w: empty upload", entity.ErrInvalidInput)
	}
	if int64(len(upload)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", entity.ErrPayloadTooLarge, len(upload), s.maxUploadBytes)
	}

	start := time.Now()
	id := uuid.New().String()
	key := s.cacheKey(upload, shape)

	log := logrus.WithFields(logrus.Fields{
		"request_id": id,
		"shape":      shape,
		"input_size": len(upload),
	})

	result := s.fromCache(ctx, key, log)
	if result == nil {
		img, err := s.compositor.Render(upload, shape)
		if err != nil {
			log.WithError(err).Warn("Frame rendering failed")
			return nil, err
		}
		data, err := compositor.Encode(img)
		if err != nil {
			return nil, err
		}
		result = &entity.FrameResult{
			Image:  data,
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
		}

		if err := s.cache.Set(ctx, key, data); err != nil {
			log.WithError(err).Warn("Failed to store frame in cache")
		}
	}

	result.ID = id
	result.Shape = shape
	result.Filename = shape.Filename()
	result.ContentType = "image/png"

	event := entity.FrameEvent{
		ID:          id,
		Shape:       shape,
		InputBytes:  len(upload),
		OutputBytes: len(result.Image),
		Width:       result.Width,
		Height:      result.Height,
		DurationMs:  time.Since(start).Milliseconds(),
		Cached:      result.Cached,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.producer.SendMessage(ctx, id, event); err != nil {
		log.WithError(err).Warn("Failed to publish frame event")
	}

	log.WithFields(logrus.Fields{
		"output_size": len(result.Image),
		"cached":      result.Cached,
		"duration":    time.Since(start),
	}).Info("Frame rendered")

	return result, nil
}

// fromCache returns nil when the key is absent or the cache is unavailable.
func (s *frameService) fromCache(ctx context.Context, key string, log *logrus.Entry) *entity.FrameResult {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("Frame cache lookup failed")
		return nil
	}
	if !ok {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.WithError(err).Warn("Discarding unreadable cached frame")
		return nil
	}

	return &entity.FrameResult{
		Image:  data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Cached: true,
	}
}

func (s *frameService) cacheKey(upload []byte, shape entity.Shape) string {
	sum := sha256.Sum256(upload)
	return fmt.Sprintf("%s:%s:%s", hex.EncodeToString(sum[:]), shape, s.compositor.Fingerprint())
}
