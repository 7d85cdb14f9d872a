package backends

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// CassandraDB is the interface CassandraBackend needs from the gocql session
// so unit tests can fake the cluster.
type CassandraDB interface {
	Init() error
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string, ttlSeconds int) (bool, error)
	Update(ctx context.Context, key string, value string, ttlSeconds int) (bool, error)
	TTL(ctx context.Context, key string) (int, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// CassandraDBClient is the production implementation of the CassandraDB interface
type CassandraDBClient struct {
	cfg     config.Cassandra
	cluster *gocql.ClusterConfig
	session *gocql.Session
}

func (c *CassandraDBClient) Init() error {
	c.cluster = gocql.NewCluster(c.cfg.Hosts)
	c.cluster.Keyspace = c.cfg.Keyspace
	c.cluster.Consistency = gocql.LocalOne

	var err error
	c.session, err = c.cluster.CreateSession()
	return err
}

func (c *CassandraDBClient) Get(ctx context.Context, key string) (string, error) {
	var res string
	err := c.session.Query(`SELECT value FROM stash WHERE key = ? LIMIT 1`, key).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&res)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", utils.NewStashError(utils.NOT_FOUND)
	}
	return res, err
}

func (c *CassandraDBClient) Put(ctx context.Context, key string, value string, ttlSeconds int) (bool, error) {
	var resKey, resValue string
	return c.session.Query(`INSERT INTO stash (key, value) VALUES (?, ?) IF NOT EXISTS USING TTL ?`, key, value, ttlSeconds).
		WithContext(ctx).
		ScanCAS(&resKey, &resValue)
}

func (c *CassandraDBClient) Update(ctx context.Context, key string, value string, ttlSeconds int) (bool, error) {
	var resValue string
	return c.session.Query(`UPDATE stash USING TTL ? SET value = ? WHERE key = ? IF EXISTS`, ttlSeconds, value, key).
		WithContext(ctx).
		ScanCAS(&resValue)
}

func (c *CassandraDBClient) TTL(ctx context.Context, key string) (int, error) {
	var remaining int
	err := c.session.Query(`SELECT TTL(value) FROM stash WHERE key = ? LIMIT 1`, key).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&remaining)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, utils.NewStashError(utils.NOT_FOUND)
	}
	return remaining, err
}

func (c *CassandraDBClient) Delete(ctx context.Context, key string) (bool, error) {
	var resValue string
	return c.session.Query(`DELETE FROM stash WHERE key = ? IF EXISTS`, key).
		WithContext(ctx).
		ScanCAS(&resValue)
}

// CassandraBackend stores records in a Cassandra table with per-row TTL.
// Rows vanish from reads the moment their TTL elapses; compaction reclaims
// the space later, which satisfies the expiry contract without extra
// sweeping. Writes use lightweight transactions so a conditional write is
// all-or-nothing.
type CassandraBackend struct {
	defaultTTL int
	client     CassandraDB
}

// NewCassandraBackend create a new cassandra backend
func NewCassandraBackend(cfg config.Cassandra) *CassandraBackend {
	backend := &CassandraBackend{
		defaultTTL: cfg.DefaultTTLSeconds,
		client:     &CassandraDBClient{cfg: cfg},
	}

	if err := backend.client.Init(); err != nil {
		log.Fatalf("Error creating Cassandra backend: %v", err)
	}
	log.Infof("Connected to Cassandra hosts %s keyspace %s", cfg.Hosts, cfg.Keyspace)

	return backend
}

func (c *CassandraBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	if ttlSeconds == 0 {
		ttlSeconds = c.defaultTTL
	}

	applied, err := c.client.Put(ctx, key, value, ttlSeconds)
	if err != nil {
		return err
	}
	if !applied {
		return utils.NewStashError(utils.RECORD_EXISTS)
	}
	return nil
}

func (c *CassandraBackend) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key)
}

func (c *CassandraBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	remaining, err := c.client.TTL(ctx, key)
	if err != nil {
		return time.Time{}, err
	}

	newValue := ""
	if value != nil {
		newValue = *value
	} else {
		if newValue, err = c.client.Get(ctx, key); err != nil {
			return time.Time{}, err
		}
	}

	newTTL := remaining
	if extraSeconds > 0 {
		newTTL += extraSeconds
	}

	applied, err := c.client.Update(ctx, key, newValue, newTTL)
	if err != nil {
		return time.Time{}, err
	}
	if !applied {
		return time.Time{}, utils.NewStashError(utils.NOT_FOUND)
	}
	return time.Now().Add(time.Duration(newTTL) * time.Second), nil
}

func (c *CassandraBackend) Delete(ctx context.Context, key string) error {
	applied, err := c.client.Delete(ctx, key)
	if err != nil {
		return err
	}
	if !applied {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	return nil
}

func (c *CassandraBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	return c.client.TTL(ctx, key)
}
