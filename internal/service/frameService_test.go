package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/ds124wfegd/mirai-frame/internal/database"
	"github.com/ds124wfegd/mirai-frame/internal/entity"
	"github.com/ds124wfegd/mirai-frame/internal/pkg/compositor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	getErr error
	setErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	data, ok := m.items[key]
	return data, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, image []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.items[key] = image
	return nil
}

type recordingProducer struct {
	mu     sync.Mutex
	events []entity.FrameEvent
	err    error
}

func (p *recordingProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := message.(entity.FrameEvent); ok {
		p.events = append(p.events, event)
	}
	return p.err
}

func (p *recordingProducer) Close() error { return nil }

func newTestService(t *testing.T, cache database.FrameCache, producer *recordingProducer, limit int64) FrameService {
	t.Helper()
	c, err := compositor.NewCompositor(compositor.DefaultOptions())
	require.NoError(t, err)
	return NewFrameService(c, cache, producer, limit)
}

func redPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFrameSquare(t *testing.T) {
	producer := &recordingProducer{}
	svc := newTestService(t, database.NewNoopFrameCache(), producer, 5<<20)

	result, err := svc.Frame(context.Background(), redPNG(t, 100, 100), entity.ShapeSquare)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, entity.ShapeSquare, result.Shape)
	assert.Equal(t, 140, result.Width)
	assert.Equal(t, 140, result.Height)
	assert.Equal(t, "mirai_image_framed.png", result.Filename)
	assert.Equal(t, "image/png", result.ContentType)
	assert.False(t, result.Cached)

	img, err := png.Decode(bytes.NewReader(result.Image))
	require.NoError(t, err)
	assert.Equal(t, 140, img.Bounds().Dx())

	require.Len(t, producer.events, 1)
	event := producer.events[0]
	assert.Equal(t, result.ID, event.ID)
	assert.Equal(t, len(result.Image), event.OutputBytes)
	assert.Equal(t, 140, event.Width)
}

func TestFrameCircle(t *testing.T) {
	svc := newTestService(t, database.NewNoopFrameCache(), &recordingProducer{}, 5<<20)

	result, err := svc.Frame(context.Background(), redPNG(t, 1000, 500), entity.ShapeCircle)
	require.NoError(t, err)

	assert.Equal(t, 400, result.Width)
	assert.Equal(t, 400, result.Height)
	assert.Equal(t, "mirai_icon_circle.png", result.Filename)
}

func TestFrameUploadCeiling(t *testing.T) {
	upload := redPNG(t, 32, 32)
	limit := int64(len(upload))

	tests := []struct {
		name    string
		limit   int64
		wantErr error
	}{
		{name: "exactly at ceiling", limit: limit},
		{name: "one byte over ceiling", limit: limit - 1, wantErr: entity.ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer := &recordingProducer{}
			svc := newTestService(t, database.NewNoopFrameCache(), producer, tt.limit)

			result, err := svc.Frame(context.Background(), upload, entity.ShapeSquare)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, result)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.Empty(t, producer.events)
		})
	}
}

func TestFrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		upload  []byte
		shape   entity.Shape
		wantErr error
	}{
		{name: "empty upload", upload: nil, shape: entity.ShapeSquare, wantErr: entity.ErrInvalidInput},
		{name: "garbage", upload: []byte("not an image at all"), shape: entity.ShapeSquare, wantErr: entity.ErrInvalidImage},
		{name: "bad shape", upload: []byte{0x89, 'P', 'N', 'G'}, shape: entity.Shape("star"), wantErr: entity.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer := &recordingProducer{}
			svc := newTestService(t, database.NewNoopFrameCache(), producer, 5<<20)

			result, err := svc.Frame(context.Background(), tt.upload, tt.shape)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.Empty(t, producer.events)
		})
	}
}

func TestFrameUsesCache(t *testing.T) {
	cache := newMemoryCache()
	producer := &recordingProducer{}
	svc := newTestService(t, cache, producer, 5<<20)
	upload := redPNG(t, 60, 40)

	first, err := svc.Frame(context.Background(), upload, entity.ShapeSquare)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, cache.items, 1)

	second, err := svc.Frame(context.Background(), upload, entity.ShapeSquare)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Image, second.Image)
	assert.Equal(t, 100, second.Width)
	assert.Equal(t, 80, second.Height)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = svc.Frame(context.Background(), upload, entity.ShapeCircle)
	require.NoError(t, err)
	assert.Len(t, cache.items, 2, "shape is part of the cache key")

	require.Len(t, producer.events, 3)
	assert.True(t, producer.events[1].Cached)
}

func TestFrameToleratesSideEffectFailures(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	producer := &recordingProducer{err: errors.New("kafka down")}
	svc := newTestService(t, cache, producer, 5<<20)

	result, err := svc.Frame(context.Background(), redPNG(t, 10, 10), entity.ShapeSquare)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Width)
}

func TestFrameIgnoresCorruptCacheEntry(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, cache, &recordingProducer{}, 5<<20)
	upload := redPNG(t, 10, 10)

	_, err := svc.Frame(context.Background(), upload, entity.ShapeSquare)
	require.NoError(t, err)
	for k := range cache.items {
		cache.items[k] = []byte("corrupt")
	}

	result, err := svc.Frame(context.Background(), upload, entity.ShapeSquare)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 50, result.Width)
}
