package backends

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/gomemcache/memcache"
	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/utils"
)

func storedMemcacheItem(t *testing.T, value string, ttlSeconds int) *memcache.Item {
	t.Helper()
	raw, err := json.Marshal(memcacheEnvelope{
		Value:     []byte(value),
		ExpiresAt: time.Now().Unix() + int64(ttlSeconds),
	})
	assert.NoError(t, err)
	return &memcache.Item{Key: "someKey", Value: raw, Expiration: int32(ttlSeconds)}
}

func TestMemcacheBackendPut(t *testing.T) {
	goodClient := &GoodMemcache{StoredData: map[string]*memcache.Item{}}
	mcBackend := NewMockMemcacheBackend(goodClient)

	assert.NoError(t, mcBackend.Put(context.Background(), "someKey", "someValue", 60))

	// Add is set-if-absent: the second write must fail and keep the original.
	err := mcBackend.Put(context.Background(), "someKey", "anotherValue", 60)
	assert.Equal(t, utils.NewStashError(utils.RECORD_EXISTS), err)

	value, err := mcBackend.Get(context.Background(), "someKey")
	assert.NoError(t, err)
	assert.Equal(t, "someValue", value)
}

func TestMemcacheBackendGet(t *testing.T) {
	type testExpectedValues struct {
		value string
		err   error
	}

	testCases := []struct {
		desc     string
		client   MemcacheDataStore
		expected testExpectedValues
	}{
		{
			desc: "cache miss translates to NOT_FOUND",
			client: &GoodMemcache{
				StoredData: map[string]*memcache.Item{},
			},
			expected: testExpectedValues{err: utils.NewStashError(utils.NOT_FOUND)},
		},
		{
			desc: "server errors pass through untranslated",
			client: &ErrorProneMemcache{
				ServerError: errors.New("some memcache error"),
			},
			expected: testExpectedValues{err: errors.New("some memcache error")},
		},
	}

	for _, tc := range testCases {
		mcBackend := NewMockMemcacheBackend(tc.client)

		value, err := mcBackend.Get(context.Background(), "someKey")

		assert.Equal(t, tc.expected.value, value, tc.desc)
		assert.Equal(t, tc.expected.err, err, tc.desc)
	}
}

func TestMemcacheBackendEnvelopeExpiry(t *testing.T) {
	// The stored envelope expired even though memcached has not purged it.
	goodClient := &GoodMemcache{
		StoredData: map[string]*memcache.Item{"someKey": storedMemcacheItem(t, "someValue", -1)},
	}
	mcBackend := NewMockMemcacheBackend(goodClient)

	_, err := mcBackend.Get(context.Background(), "someKey")
	assert.Equal(t, utils.NewStashError(utils.NOT_FOUND), err)

	_, err = mcBackend.RemainingTTL(context.Background(), "someKey")
	assert.Equal(t, utils.NewStashError(utils.NOT_FOUND), err)
}

func TestMemcacheBackendReplace(t *testing.T) {
	newValue := "newValue"
	goodClient := &GoodMemcache{
		StoredData: map[string]*memcache.Item{"someKey": storedMemcacheItem(t, "someValue", 60)},
	}
	mcBackend := NewMockMemcacheBackend(goodClient)

	expiresAt, err := mcBackend.Replace(context.Background(), "someKey", &newValue, 30)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(90*time.Second), expiresAt, time.Second)

	value, err := mcBackend.Get(context.Background(), "someKey")
	assert.NoError(t, err)
	assert.Equal(t, "newValue", value)

	remaining, err := mcBackend.RemainingTTL(context.Background(), "someKey")
	assert.NoError(t, err)
	assert.InDelta(t, 90, remaining, 1)
}

func TestMemcacheBackendReplaceCASRetry(t *testing.T) {
	goodClient := &GoodMemcache{
		StoredData: map[string]*memcache.Item{"someKey": storedMemcacheItem(t, "someValue", 60)},
		CASErrors:  2,
	}
	mcBackend := NewMockMemcacheBackend(goodClient)

	// Two conflicts fit inside the retry budget of three.
	_, err := mcBackend.Replace(context.Background(), "someKey", nil, 30)
	assert.NoError(t, err)

	goodClient.CASErrors = utils.MAX_WRITE_CONFLICT_RETRIES
	_, err = mcBackend.Replace(context.Background(), "someKey", nil, 30)
	assert.True(t, utils.IsType(err, utils.WRITE_CONFLICT))
}

func TestMemcacheBackendDelete(t *testing.T) {
	goodClient := &GoodMemcache{
		StoredData: map[string]*memcache.Item{"someKey": storedMemcacheItem(t, "someValue", 60)},
	}
	mcBackend := NewMockMemcacheBackend(goodClient)

	assert.NoError(t, mcBackend.Delete(context.Background(), "someKey"))
	assert.Equal(t, utils.NewStashError(utils.NOT_FOUND), mcBackend.Delete(context.Background(), "someKey"))
}
