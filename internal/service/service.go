package service

import (
	"context"

	"github.com/ds124wfegd/mirai-frame/internal/database"
	"github.com/ds124wfegd/mirai-frame/internal/entity"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/compositor"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/kafka"
)

type FrameService interface {
	Frame(ctx context.Context, upload []byte, shape entity.Shape) (*entity.FrameResult, error)
	MaxUploadBytes() int64
}

type frameService struct {
	compositor     compositor.Compositor
	cache          database.FrameCache
	producer       kafka.Producer
	maxUploadBytes int64
}

func NewFrameService(compositor compositor.Compositor, cache database.FrameCache, producer kafka.Producer, maxUploadBytes int64) FrameService {
	return &frameService{
		compositor:     compositor,
		cache:          cache,
		producer:       producer,
		maxUploadBytes: maxUploadBytes,
	}
}
