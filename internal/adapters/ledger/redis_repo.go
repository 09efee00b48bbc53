package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/solidity-kit/kitdeploy/internal/domain"
	"github.com/solidity-kit/kitdeploy/internal/domain/models"
	"github.com/solidity-kit/kitdeploy/internal/usecase"
)

// DefaultRedisPrefix namespaces every key the ledger writes
const DefaultRedisPrefix = "kitdeploy"

const maxWatchRetries = 10

// RedisLedger stores records in redis. Per network it keeps:
//
//	<prefix>:<network>:chain          chain ID
//	<prefix>:<network>:deployments    hash identity -> record JSON
//	<prefix>:<network>:names          hash contract name -> identity
type RedisLedger struct {
	client *redis.Client
	prefix string
}

// NewRedisLedger connects to the redis URL and verifies the connection
func NewRedisLedger(url, prefix string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisLedgerWithClient(client, prefix), nil
}

// NewRedisLedgerWithClient wraps an existing client
func NewRedisLedgerWithClient(client *redis.Client, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLedger{client: client, prefix: prefix}
}

func (l *RedisLedger) key(network, suffix string) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, network, suffix)
}

// Get implements usecase.DeploymentLedger
func (l *RedisLedger) Get(ctx context.Context, network, identity string) (*models.DeploymentRecord, error) {
	data, err := l.client.HGet(ctx, l.key(network, "deployments"), identity).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("deployment %s on %s: %w", identity, network, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read deployment: %w", err)
	}
	return decodeRecord(data)
}

// GetByName implements usecase.DeploymentLedger
func (l *RedisLedger) GetByName(ctx context.Context, network, name string) (*models.DeploymentRecord, error) {
	identity, err := l.client.HGet(ctx, l.key(network, "names"), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("deployment %s on %s: %w", name, network, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read name index: %w", err)
	}
	return l.Get(ctx, network, identity)
}

// Save implements usecase.DeploymentLedger. The chain check and the write
// happen under WATCH so a concurrent writer for another chain aborts one of us.
func (l *RedisLedger) Save(ctx context.Context, record *models.DeploymentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode deployment: %w", err)
	}

	chainKey := l.key(record.Network, "chain")
	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, chainKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if stored != "" {
			chainID, err := strconv.ParseUint(stored, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt chain id %q: %w", stored, err)
			}
			if chainID != record.ChainID {
				return fmt.Errorf("%w: ledger for %s holds chain %d, record is for chain %d",
					domain.ErrNetworkMismatch, record.Network, chainID, record.ChainID)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, chainKey, record.ChainID, 0)
			pipe.HSet(ctx, l.key(record.Network, "deployments"), record.Identity, data)
			pipe.HSet(ctx, l.key(record.Network, "names"), record.ContractName, record.Identity)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err = l.client.Watch(ctx, txf, chainKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrNetworkMismatch) {
			return err
		}
		return fmt.Errorf("failed to save deployment: %w", err)
	}
	return nil
}

// List implements usecase.DeploymentLedger
func (l *RedisLedger) List(ctx context.Context, network string) ([]*models.DeploymentRecord, error) {
	values, err := l.client.HGetAll(ctx, l.key(network, "deployments")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	records := make([]*models.DeploymentRecord, 0, len(values))
	for _, v := range values {
		record, err := decodeRecord([]byte(v))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	sortRecords(records)
	return records, nil
}

// Close closes the redis client
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

func decodeRecord(data []byte) (*models.DeploymentRecord, error) {
	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode deployment: %w", err)
	}
	return &record, nil
}

var _ usecase.DeploymentLedger = (*RedisLedger)(nil)
