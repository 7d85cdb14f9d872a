package backends

import (
	"context"
	"time"

	as "github.com/aerospike/aerospike-client-go/v6"
	as_types "github.com/aerospike/aerospike-client-go/v6/types"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

const setName = "stash"
const binValue = "value"

// AerospikeDB is the interface AerospikeBackend needs from the client
// library. Implementations translate Aerospike result codes into StashErrors
// so unit tests can fake the server without fabricating client error types.
type AerospikeDB interface {
	Get(ctx context.Context, key string) (value string, ttlRemaining int, generation uint32, err error)
	Head(ctx context.Context, key string) (ttlRemaining int, generation uint32, err error)
	Create(ctx context.Context, key string, value string, ttlSeconds int) error
	Update(ctx context.Context, key string, value string, ttlSeconds int, generation uint32) error
	Remove(ctx context.Context, key string) (bool, error)
}

// AerospikeDBClient is the production implementation of the AerospikeDB interface
type AerospikeDBClient struct {
	client    *as.Client
	namespace string
}

func (db *AerospikeDBClient) Get(ctx context.Context, key string) (string, int, uint32, error) {
	asKey, err := as.NewKey(db.namespace, setName, key)
	if err != nil {
		return "", 0, 0, err
	}

	rec, asErr := db.client.Get(nil, asKey, binValue)
	if asErr != nil {
		return "", 0, 0, classifyAerospikeError(asErr)
	}

	value, found := rec.Bins[binValue]
	if !found {
		return "", 0, 0, utils.NewStashError(utils.BACKEND_UNAVAILABLE, "aerospike record has no value bin")
	}
	str, isString := value.(string)
	if !isString {
		return "", 0, 0, utils.NewStashError(utils.BACKEND_UNAVAILABLE, "aerospike record value is not a string")
	}

	return str, int(rec.Expiration), rec.Generation, nil
}

func (db *AerospikeDBClient) Head(ctx context.Context, key string) (int, uint32, error) {
	asKey, err := as.NewKey(db.namespace, setName, key)
	if err != nil {
		return 0, 0, err
	}

	rec, asErr := db.client.GetHeader(nil, asKey)
	if asErr != nil {
		return 0, 0, classifyAerospikeError(asErr)
	}
	return int(rec.Expiration), rec.Generation, nil
}

func (db *AerospikeDBClient) Create(ctx context.Context, key string, value string, ttlSeconds int) error {
	asKey, err := as.NewKey(db.namespace, setName, key)
	if err != nil {
		return err
	}

	policy := as.NewWritePolicy(0, uint32(ttlSeconds))
	policy.RecordExistsAction = as.CREATE_ONLY

	if asErr := db.client.Put(policy, asKey, as.BinMap{binValue: value}); asErr != nil {
		return classifyAerospikeError(asErr)
	}
	return nil
}

func (db *AerospikeDBClient) Update(ctx context.Context, key string, value string, ttlSeconds int, generation uint32) error {
	asKey, err := as.NewKey(db.namespace, setName, key)
	if err != nil {
		return err
	}

	policy := as.NewWritePolicy(generation, uint32(ttlSeconds))
	policy.GenerationPolicy = as.EXPECT_GEN_EQUAL
	policy.RecordExistsAction = as.UPDATE_ONLY

	if asErr := db.client.Put(policy, asKey, as.BinMap{binValue: value}); asErr != nil {
		return classifyAerospikeError(asErr)
	}
	return nil
}

func (db *AerospikeDBClient) Remove(ctx context.Context, key string) (bool, error) {
	asKey, err := as.NewKey(db.namespace, setName, key)
	if err != nil {
		return false, err
	}

	existed, asErr := db.client.Delete(nil, asKey)
	if asErr != nil {
		return false, classifyAerospikeError(asErr)
	}
	return existed, nil
}

func classifyAerospikeError(err as.Error) error {
	if err.Matches(as_types.KEY_NOT_FOUND_ERROR) {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	if err.Matches(as_types.KEY_EXISTS_ERROR) {
		return utils.NewStashError(utils.RECORD_EXISTS)
	}
	if err.Matches(as_types.GENERATION_ERROR) {
		return utils.NewStashError(utils.WRITE_CONFLICT)
	}
	return err
}

// AerospikeBackend stores one record per namespace key with Aerospike's
// native per-record TTL. CREATE_ONLY writes give set-if-absent collision
// detection; generation-checked updates keep Replace atomic against
// concurrent writers.
type AerospikeBackend struct {
	client AerospikeDB
}

func NewAerospikeBackend(cfg config.Aerospike) *AerospikeBackend {
	if cfg.Host == "" {
		log.Fatalf("Cannot connect to empty Aerospike host")
	}
	if cfg.Port <= 0 {
		log.Fatalf("Cannot connect to Aerospike host at port %d", cfg.Port)
	}

	client, err := as.NewClient(cfg.Host, cfg.Port)
	if err != nil {
		log.Fatalf("Error creating Aerospike backend: %v", err)
	}
	log.Infof("Connected to Aerospike at %s:%d", cfg.Host, cfg.Port)

	return &AerospikeBackend{
		client: &AerospikeDBClient{client: client, namespace: cfg.Namespace},
	}
}

func (a *AerospikeBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	return a.client.Create(ctx, key, value, ttlSeconds)
}

func (a *AerospikeBackend) Get(ctx context.Context, key string) (string, error) {
	value, _, _, err := a.client.Get(ctx, key)
	return value, err
}

func (a *AerospikeBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	for attempt := 0; attempt < utils.MAX_WRITE_CONFLICT_RETRIES; attempt++ {
		var newValue string
		var remaining int
		var generation uint32
		var err error

		if value != nil {
			newValue = *value
			remaining, generation, err = a.client.Head(ctx, key)
		} else {
			newValue, remaining, generation, err = a.client.Get(ctx, key)
		}
		if err != nil {
			return time.Time{}, err
		}

		newTTL := remaining
		if extraSeconds > 0 {
			newTTL += extraSeconds
		}

		err = a.client.Update(ctx, key, newValue, newTTL, generation)
		if err == nil {
			return time.Now().Add(time.Duration(newTTL) * time.Second), nil
		}
		if !utils.IsType(err, utils.WRITE_CONFLICT) {
			return time.Time{}, err
		}
	}

	return time.Time{}, utils.NewStashError(utils.WRITE_CONFLICT)
}

func (a *AerospikeBackend) Delete(ctx context.Context, key string) error {
	existed, err := a.client.Remove(ctx, key)
	if err != nil {
		return err
	}
	if !existed {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	return nil
}

func (a *AerospikeBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	remaining, _, err := a.client.Head(ctx, key)
	return remaining, err
}
