package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/crabzie/coresched/internal/core/port"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type resultCache struct {
	client  redis.UniversalClient
	storage *fiberredis.Storage
	ttl     time.Duration
	log     *zap.Logger
}

// NewResultCache creates a new Redis adapter that caches run summaries by workload
// fingerprint and ranks policies per workload
func NewResultCache(client redis.UniversalClient, storage *fiberredis.Storage, ttl time.Duration, log *zap.Logger) port.ResultCache {
	return &resultCache{
		client:  client,
		storage: storage,
		ttl:     ttl,
		log:     log,
	}
}

func runKey(fingerprint string, policy domain.Policy) string {
	return fmt.Sprintf("run:%s:%s", fingerprint, policy)
}

func boardKey(workload string) string {
	return fmt.Sprintf("board:%s", workload)
}

func (c *resultCache) Get(ctx context.Context, fingerprint string, policy domain.Policy) (*domain.RunSummary, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := c.storage.Get(runKey(fingerprint, policy))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}

	var run domain.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		// A corrupt entry is treated as a miss and recomputed
		c.log.Warn("Dropping unreadable cached run", zap.String("key", runKey(fingerprint, policy)), zap.Error(err))
		return nil, false, nil
	}
	return &run, true, nil
}

// Put stores the summary blob and records its average turnaround on the workload leaderboard
func (c *resultCache) Put(ctx context.Context, run *domain.RunSummary) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	if err := c.storage.Set(runKey(run.Fingerprint, run.Policy), data, c.ttl); err != nil {
		return err
	}

	key := boardKey(run.Workload)
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: run.AverageTurnaroundTime, Member: string(run.Policy)})
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Leaderboard lists the policies run for a workload, best (lowest average turnaround) first
func (c *resultCache) Leaderboard(ctx context.Context, workload string) ([]port.LeaderboardEntry, error) {
	members, err := c.client.ZRangeWithScores(ctx, boardKey(workload), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]port.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		name, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, port.LeaderboardEntry{
			Policy:                domain.Policy(name),
			AverageTurnaroundTime: m.Score,
		})
	}
	return entries, nil
}
