package compression

import (
	"context"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/backends"
)

func TestSnappyRoundTrip(t *testing.T) {
	delegate := backends.NewMemoryBackend()
	backend := SnappyCompress(delegate)
	ctx := context.Background()

	payload := `{"note":"remember to rotate the keys","count":42}`
	assert.NoError(t, backend.Put(ctx, "someKey", payload, 60))

	value, err := backend.Get(ctx, "someKey")
	assert.NoError(t, err)
	assert.Equal(t, payload, value)

	// The delegate holds the compressed form, not the original.
	stored, err := delegate.Get(ctx, "someKey")
	assert.NoError(t, err)
	assert.Equal(t, string(snappy.Encode(nil, []byte(payload))), stored)
	assert.NotEqual(t, payload, stored)
}

func TestSnappyReplace(t *testing.T) {
	delegate := backends.NewMemoryBackend()
	backend := SnappyCompress(delegate)
	ctx := context.Background()

	assert.NoError(t, backend.Put(ctx, "someKey", "someValue", 60))

	newValue := "newValue"
	_, err := backend.Replace(ctx, "someKey", &newValue, 0)
	assert.NoError(t, err)

	value, err := backend.Get(ctx, "someKey")
	assert.NoError(t, err)
	assert.Equal(t, "newValue", value)

	// An extend-only replace must not recompress or corrupt the payload.
	_, err = backend.Replace(ctx, "someKey", nil, 30)
	assert.NoError(t, err)

	value, err = backend.Get(ctx, "someKey")
	assert.NoError(t, err)
	assert.Equal(t, "newValue", value)
}

func TestSnappyPassthrough(t *testing.T) {
	delegate := backends.NewMemoryBackend()
	backend := SnappyCompress(delegate)
	ctx := context.Background()

	assert.NoError(t, backend.Put(ctx, "someKey", "someValue", 60))

	remaining, err := backend.RemainingTTL(ctx, "someKey")
	assert.NoError(t, err)
	assert.Equal(t, 60, remaining)

	assert.NoError(t, backend.Delete(ctx, "someKey"))
}
