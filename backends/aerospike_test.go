package backends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/utils"
)

func TestAerospikeBackendPut(t *testing.T) {
	goodClient := &GoodAerospikeClient{
		StoredData:  map[string]string{},
		TTLs:        map[string]int{},
		Generations: map[string]uint32{},
	}
	backend := NewMockAerospikeBackend(goodClient)

	assert.NoError(t, backend.Put(context.Background(), "someKey", "someValue", 60))

	// CREATE_ONLY refuses to overwrite the live record.
	err := backend.Put(context.Background(), "someKey", "anotherValue", 60)
	assert.Equal(t, utils.NewStashError(utils.RECORD_EXISTS), err)
	assert.Equal(t, "someValue", goodClient.StoredData["someKey"])
}

func TestAerospikeBackendGet(t *testing.T) {
	type testExpectedValues struct {
		value string
		err   error
	}

	testCases := []struct {
		desc     string
		client   AerospikeDB
		expected testExpectedValues
	}{
		{
			desc: "successful get",
			client: &GoodAerospikeClient{
				StoredData:  map[string]string{"someKey": "someValue"},
				TTLs:        map[string]int{"someKey": 60},
				Generations: map[string]uint32{"someKey": 1},
			},
			expected: testExpectedValues{value: "someValue"},
		},
		{
			desc: "missing record",
			client: &GoodAerospikeClient{
				StoredData:  map[string]string{},
				TTLs:        map[string]int{},
				Generations: map[string]uint32{},
			},
			expected: testExpectedValues{err: utils.NewStashError(utils.NOT_FOUND)},
		},
		{
			desc:     "server errors pass through untranslated",
			client:   &ErrorProneAerospikeClient{ServerError: errors.New("aerospike error")},
			expected: testExpectedValues{err: errors.New("aerospike error")},
		},
	}

	for _, tc := range testCases {
		backend := NewMockAerospikeBackend(tc.client)

		value, err := backend.Get(context.Background(), "someKey")

		assert.Equal(t, tc.expected.value, value, tc.desc)
		assert.Equal(t, tc.expected.err, err, tc.desc)
	}
}

func TestAerospikeBackendReplace(t *testing.T) {
	newValue := "newValue"
	goodClient := &GoodAerospikeClient{
		StoredData:  map[string]string{"someKey": "someValue"},
		TTLs:        map[string]int{"someKey": 60},
		Generations: map[string]uint32{"someKey": 1},
	}
	backend := NewMockAerospikeBackend(goodClient)

	expiresAt, err := backend.Replace(context.Background(), "someKey", &newValue, 30)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(90*time.Second), expiresAt, time.Second)
	assert.Equal(t, "newValue", goodClient.StoredData["someKey"])
	assert.Equal(t, 90, goodClient.TTLs["someKey"])
	assert.Equal(t, uint32(2), goodClient.Generations["someKey"])

	// Extend-only keeps the stored payload.
	_, err = backend.Replace(context.Background(), "someKey", nil, 10)
	assert.NoError(t, err)
	assert.Equal(t, "newValue", goodClient.StoredData["someKey"])
	assert.Equal(t, 100, goodClient.TTLs["someKey"])
}

func TestAerospikeBackendReplaceGenerationRetry(t *testing.T) {
	goodClient := &GoodAerospikeClient{
		StoredData:  map[string]string{"someKey": "someValue"},
		TTLs:        map[string]int{"someKey": 60},
		Generations: map[string]uint32{"someKey": 1},
		GenErrors:   2,
	}
	backend := NewMockAerospikeBackend(goodClient)

	// Two generation conflicts fit inside the retry budget of three.
	_, err := backend.Replace(context.Background(), "someKey", nil, 30)
	assert.NoError(t, err)

	goodClient.GenErrors = utils.MAX_WRITE_CONFLICT_RETRIES
	_, err = backend.Replace(context.Background(), "someKey", nil, 30)
	assert.True(t, utils.IsType(err, utils.WRITE_CONFLICT))
}

func TestAerospikeBackendDelete(t *testing.T) {
	goodClient := &GoodAerospikeClient{
		StoredData:  map[string]string{"someKey": "someValue"},
		TTLs:        map[string]int{"someKey": 60},
		Generations: map[string]uint32{"someKey": 1},
	}
	backend := NewMockAerospikeBackend(goodClient)

	assert.NoError(t, backend.Delete(context.Background(), "someKey"))
	assert.Equal(t, utils.NewStashError(utils.NOT_FOUND), backend.Delete(context.Background(), "someKey"))
}

func TestAerospikeBackendRemainingTTL(t *testing.T) {
	goodClient := &GoodAerospikeClient{
		StoredData:  map[string]string{"someKey": "someValue"},
		TTLs:        map[string]int{"someKey": 60},
		Generations: map[string]uint32{"someKey": 1},
	}
	backend := NewMockAerospikeBackend(goodClient)

	remaining, err := backend.RemainingTTL(context.Background(), "someKey")
	assert.NoError(t, err)
	assert.Equal(t, 60, remaining)

	_, err = backend.RemainingTTL(context.Background(), "missingKey")
	assert.Equal(t, utils.NewStashError(utils.NOT_FOUND), err)
}
