package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"aioseo_meta_workflow/generator"
	"aioseo_meta_workflow/metrics"
	"aioseo_meta_workflow/workflow"
)

const (
	keyPrefix      = "aioseo:runs:"
	keyLastRun     = "aioseo:last_run"
	DefaultLimit   = 20
	defaultTimeout = 2 * time.Second
)

// Record is one stored run.
type Record struct {
	RunID       string             `json:"run_id"`
	PostID      int                `json:"post_id"`
	Meta        generator.Meta     `json:"meta"`
	Steps       workflow.StepTrace `json:"steps"`
	TriggeredBy string             `json:"triggered_by"`
	At          time.Time          `json:"at"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// History keeps the most recent runs of each post in a Redis list.
type History struct {
	client  *redis.Client
	limit   int64
	timeout time.Duration
}

// NewRedisClient builds the client used by History.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// NewHistory wraps client, keeping at most limit runs per post.
func NewHistory(client *redis.Client, limit int) (*History, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{client: client, limit: int64(limit), timeout: defaultTimeout}, nil
}

// Ping checks the Redis connection.
func (h *History) Ping(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (h *History) Close() error {
	return h.client.Close()
}

func postKey(postID int) string {
	return keyPrefix + strconv.Itoa(postID)
}

// Append pushes rec to the post's list, trims it and stamps the last-run time.
func (h *History) Append(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		metrics.RunHistoryErrors.Inc()
		return fmt.Errorf("encode run record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	key := postKey(rec.PostID)
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, h.limit-1)
	pipe.Set(ctx, keyLastRun, rec.At.Format(time.RFC3339), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RunHistoryErrors.Inc()
		return fmt.Errorf("store run record: %w", err)
	}
	return nil
}

// Recent returns up to n runs of a post, newest first.
func (h *History) Recent(ctx context.Context, postID int, n int) ([]Record, error) {
	if n <= 0 || int64(n) > h.limit {
		n = int(h.limit)
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	raw, err := h.client.LRange(ctx, postKey(postID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read run history: %w", err)
	}
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// LastRun returns when any run last completed. ok is false if none has.
func (h *History) LastRun(ctx context.Context) (at time.Time, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	val, err := h.client.Get(ctx, keyLastRun).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read last run: %w", err)
	}
	at, err = time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last run: %w", err)
	}
	return at, true, nil
}
