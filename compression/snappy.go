package compression

import (
	"context"
	"time"

	"github.com/golang/snappy"

	"github.com/stashd/stashd/backends"
)

// SnappyCompress runs snappy compression on payloads before they reach the
// backend, and decompresses them on the way out. Delete and RemainingTTL
// never touch the payload and pass straight through.
// For more info, see https://en.wikipedia.org/wiki/Snappy_(compression)
func SnappyCompress(backend backends.Backend) backends.Backend {
	return &snappyCompressor{
		delegate: backend,
	}
}

type snappyCompressor struct {
	delegate backends.Backend
}

func (s *snappyCompressor) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	return s.delegate.Put(ctx, key, string(snappy.Encode(nil, []byte(value))), ttlSeconds)
}

func (s *snappyCompressor) Get(ctx context.Context, key string) (string, error) {
	compressed, err := s.delegate.Get(ctx, key)
	if err != nil {
		return "", err
	}

	decompressed, err := snappy.Decode(nil, []byte(compressed))
	if err != nil {
		return "", err
	}

	return string(decompressed), nil
}

func (s *snappyCompressor) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	if value != nil {
		compressed := string(snappy.Encode(nil, []byte(*value)))
		value = &compressed
	}
	return s.delegate.Replace(ctx, key, value, extraSeconds)
}

func (s *snappyCompressor) Delete(ctx context.Context, key string) error {
	return s.delegate.Delete(ctx, key)
}

func (s *snappyCompressor) RemainingTTL(ctx context.Context, key string) (int, error) {
	return s.delegate.RemainingTTL(ctx, key)
}
