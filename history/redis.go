package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cannoliai/cannoli/graph"
)

// RedisRecorder persists Records as one hash per run keyed
// "cannoli:run:<id>" (SPEC_FULL.md §4.10), grounded on the teacher's
// store/redis.RedisCheckpointStore key-prefix and TTL conventions.
type RedisRecorder struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a RedisRecorder.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "cannoli:"
	TTL      time.Duration // expiration for run hashes, default none
}

// NewRedisRecorder returns a RedisRecorder; it does not dial eagerly, like
// redis.NewClient itself.
func NewRedisRecorder(opts RedisOptions) *RedisRecorder {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "cannoli:"
	}
	return &RedisRecorder{client: client, prefix: prefix, ttl: opts.TTL}
}

func (r *RedisRecorder) runKey(id graph.ID) string {
	return fmt.Sprintf("%srun:%s", r.prefix, id)
}

func (r *RedisRecorder) Record(ctx context.Context, rec Record) error {
	key := r.runKey(rec.RunID)
	fields := map[string]any{
		"started_at":        rec.StartedAt.Format(time.RFC3339Nano),
		"finished_at":       rec.FinishedAt.Format(time.RFC3339Nano),
		"reason":            string(rec.Reason),
		"message":           rec.Message,
		"prompt_tokens":     strconv.Itoa(rec.Usage.PromptTokens),
		"completion_tokens": strconv.Itoa(rec.Usage.CompletionTokens),
		"calls":             strconv.Itoa(rec.Usage.Calls),
		"total_cost":        strconv.FormatFloat(rec.Usage.TotalCost, 'g', -1, 64),
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history: recording run %s to redis: %w", rec.RunID, err)
	}
	return nil
}

var _ Recorder = (*RedisRecorder)(nil)
