package database

import (
	"context"
)

// FrameCache memoises rendered frames by content key.
type FrameCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, image []byte) error
}

type noopFrameCache struct{}

// NewNoopFrameCache is used when Redis is disabled.
func NewNoopFrameCache() FrameCache {
	return noopFrameCache{}
}

func (noopFrameCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (noopFrameCache) Set(ctx context.Context, key string, image []byte) error {
	return nil
}
