package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-competition-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps quiz attempts in Redis as JSON under quiz:attempt:{id}.
// Keys expire after ttl so abandoned attempts clean themselves up. Updates run
// inside WATCH/MULTI so concurrent answers to one attempt cannot interleave.
type AttemptStore struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries int
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:     client,
		ttl:        ttl,
		maxRetries: 5,
	}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(attempt.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store attempt: %w", err)
	}
	if !ok {
		return domain.ErrConflict
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, id string) (domain.Attempt, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return domain.Attempt{}, s.readErr(err)
	}
	return decodeAttempt(raw)
}

func (s *AttemptStore) Update(ctx context.Context, id string, fn func(*domain.Attempt) error) (domain.Attempt, error) {
	key := s.key(id)
	var updated domain.Attempt

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return s.readErr(err)
		}
		attempt, err := decodeAttempt(raw)
		if err != nil {
			return err
		}
		if err := fn(&attempt); err != nil {
			return err
		}
		data, err := json.Marshal(attempt)
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = attempt
		}
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Another writer touched the key; re-read and re-apply.
			continue
		}
		return domain.Attempt{}, err
	}
	return domain.Attempt{}, domain.ErrConflict
}

func (s *AttemptStore) Take(ctx context.Context, id string) (domain.Attempt, error) {
	raw, err := s.client.GetDel(ctx, s.key(id)).Bytes()
	if err != nil {
		return domain.Attempt{}, s.readErr(err)
	}
	return decodeAttempt(raw)
}

func (s *AttemptStore) key(id string) string {
	return "quiz:attempt:" + id
}

func (s *AttemptStore) readErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return domain.ErrAttemptNotFound
	}
	return fmt.Errorf("read attempt: %w", err)
}

func decodeAttempt(raw []byte) (domain.Attempt, error) {
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}
