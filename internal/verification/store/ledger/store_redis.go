package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"empverify/internal/verification/models"
	"empverify/pkg/platform/sentinel"
)

const (
	redisKeyPrefix  = "empverify:attempts:"
	redisBlockedSet = "empverify:attempts:blocked"
)

// Each script runs atomically on the Redis server, which is what serializes
// same-pair increments across processes.
var (
	// Reply: {outcome, failures, last_attempt_at, blocked_at}. outcome is -1 when
	// the pair was already blocked, 1 when this call blocked it, else 0.
	// Timestamps are unix micros, 0 when unset.
	incrementScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'blocked') == '1' then
  local f = redis.call('HMGET', KEYS[1], 'failures', 'last_attempt_at', 'blocked_at')
  return {-1, tonumber(f[1]) or 0, tonumber(f[2]) or 0, tonumber(f[3]) or 0}
end
local n = redis.call('HINCRBY', KEYS[1], 'failures', 1)
redis.call('HSET', KEYS[1], 'requester_id', ARGV[1], 'subject_id', ARGV[2], 'last_attempt_at', ARGV[4])
if n >= tonumber(ARGV[3]) then
  redis.call('HSET', KEYS[1], 'blocked', '1', 'blocked_at', ARGV[4])
  redis.call('ZADD', KEYS[2], ARGV[4], KEYS[1])
  return {1, n, tonumber(ARGV[4]), tonumber(ARGV[4])}
end
redis.call('HSET', KEYS[1], 'blocked', '0')
return {0, n, tonumber(ARGV[4]), 0}
`)

	resetScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
if redis.call('HGET', KEYS[1], 'blocked') == '1' then
  return 1
end
redis.call('HSET', KEYS[1], 'failures', 0, 'last_attempt_at', ARGV[1])
redis.call('HDEL', KEYS[1], 'blocked_at')
return 0
`)

	clearScript = redis.NewScript(`
redis.call('ZREM', KEYS[2], KEYS[1])
return redis.call('DEL', KEYS[1])
`)
)

// RedisStore keeps each pair in a hash and blocked pairs in a sorted set
// scored by block time. It expects a single Redis node or primary.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func stateKey(pair models.Pair) string {
	return redisKeyPrefix + pair.Key()
}

func (s *RedisStore) Get(ctx context.Context, pair models.Pair) (*models.AttemptState, error) {
	return s.get(ctx, stateKey(pair))
}

func (s *RedisStore) get(ctx context.Context, key string) (*models.AttemptState, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get attempt state: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeState(fields)
}

func (s *RedisStore) IncrementFailure(ctx context.Context, pair models.Pair, maxAttempts int, now time.Time) (*models.FailureResult, error) {
	res, err := incrementScript.Run(ctx, s.client,
		[]string{stateKey(pair), redisBlockedSet},
		pair.RequesterID, pair.SubjectID, maxAttempts, now.UnixMicro(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("increment attempt failure: %w", err)
	}
	return decodeIncrementReply(pair, res)
}

// decodeIncrementReply builds the failure result from the script reply alone,
// so a committed increment never needs a second round trip to report.
func decodeIncrementReply(pair models.Pair, res []int64) (*models.FailureResult, error) {
	if len(res) != 4 {
		return nil, fmt.Errorf("increment attempt failure: unexpected script reply %v", res)
	}
	state := &models.AttemptState{
		RequesterID:         pair.RequesterID,
		SubjectID:           pair.SubjectID,
		ConsecutiveFailures: int(res[1]),
		Blocked:             res[0] != 0,
	}
	if res[2] > 0 {
		state.LastAttemptAt = time.UnixMicro(res[2]).UTC()
	}
	if res[3] > 0 {
		blockedAt := time.UnixMicro(res[3]).UTC()
		state.BlockedAt = &blockedAt
	}
	switch res[0] {
	case -1:
		return &models.FailureResult{State: state, AlreadyBlocked: true}, nil
	case 1:
		return &models.FailureResult{State: state, JustBlocked: true}, nil
	case 0:
		return &models.FailureResult{State: state}, nil
	}
	return nil, fmt.Errorf("increment attempt failure: unknown outcome %d", res[0])
}

func (s *RedisStore) Reset(ctx context.Context, pair models.Pair, now time.Time) (*models.ResetResult, error) {
	blocked, err := resetScript.Run(ctx, s.client, []string{stateKey(pair)}, now.UnixMicro()).Int64()
	if err != nil {
		return nil, fmt.Errorf("reset attempt state: %w", err)
	}
	return &models.ResetResult{Blocked: blocked == 1}, nil
}

func (s *RedisStore) Clear(ctx context.Context, pair models.Pair) error {
	deleted, err := clearScript.Run(ctx, s.client, []string{stateKey(pair), redisBlockedSet}).Int64()
	if err != nil {
		return fmt.Errorf("clear attempt state: %w", err)
	}
	if deleted == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisStore) ListBlocked(ctx context.Context, limit int) ([]*models.AttemptState, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	keys, err := s.client.ZRevRange(ctx, redisBlockedSet, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list blocked attempt states: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = p.HGetAll(ctx, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load blocked attempt states: %w", err)
	}

	states := make([]*models.AttemptState, 0, len(keys))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		state, err := decodeState(fields)
		if err != nil {
			return nil, err
		}
		if state.Blocked {
			states = append(states, state)
		}
	}
	return states, nil
}

func decodeState(fields map[string]string) (*models.AttemptState, error) {
	failures, err := strconv.Atoi(fields["failures"])
	if err != nil {
		return nil, fmt.Errorf("decode attempt state failures: %w", err)
	}
	state := &models.AttemptState{
		RequesterID:         fields["requester_id"],
		SubjectID:           fields["subject_id"],
		ConsecutiveFailures: failures,
		Blocked:             fields["blocked"] == "1",
	}
	if raw := fields["last_attempt_at"]; raw != "" {
		t, err := parseMicros(raw)
		if err != nil {
			return nil, fmt.Errorf("decode attempt state last_attempt_at: %w", err)
		}
		state.LastAttemptAt = t
	}
	if raw := fields["blocked_at"]; raw != "" {
		t, err := parseMicros(raw)
		if err != nil {
			return nil, fmt.Errorf("decode attempt state blocked_at: %w", err)
		}
		state.BlockedAt = &t
	}
	return state, nil
}

func parseMicros(raw string) (time.Time, error) {
	us, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(us).UTC(), nil
}
