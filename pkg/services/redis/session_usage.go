package redisservice

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const SpeechServiceRedisKey = Prefix + "speechService"

// SpeechKeyGetConnections returns the live connection count recorded for one
// subscription key. A missing counter reads as empty.
func (s *RedisService) SpeechKeyGetConnections(keyId string) (string, error) {
	keyStatus := fmt.Sprintf("%s:%s:connections", SpeechServiceRedisKey, keyId)
	conns, err := s.rc.Get(s.ctx, keyStatus).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", nil
	case err != nil:
		return "", err
	}

	return conns, nil
}

func (s *RedisService) SpeechKeyAddConnection(keyId string) error {
	keyStatus := fmt.Sprintf("%s:%s:connections", SpeechServiceRedisKey, keyId)
	_, err := s.rc.Incr(s.ctx, keyStatus).Result()
	if err != nil {
		return err
	}

	return nil
}

func (s *RedisService) SpeechKeyReleaseConnection(keyId string) error {
	keyStatus := fmt.Sprintf("%s:%s:connections", SpeechServiceRedisKey, keyId)
	_, err := s.rc.Decr(s.ctx, keyStatus).Result()
	if err != nil {
		return err
	}

	return nil
}

// SessionUsageStarted records the start timestamp of a session under its
// patient's usage hash.
func (s *RedisService) SessionUsageStarted(patientId, sessionId string) error {
	key := fmt.Sprintf("%s:%s:usage", SpeechServiceRedisKey, patientId)

	_, err := s.rc.HSet(s.ctx, key, sessionId, time.Now().Unix()).Result()
	if err != nil {
		return err
	}

	return nil
}

// SessionUsageEnded computes how long the session ran, folds it into the
// patient's total and drops the per-session field, all in one transaction.
func (s *RedisService) SessionUsageEnded(patientId, sessionId string) (int64, error) {
	key := fmt.Sprintf("%s:%s:usage", SpeechServiceRedisKey, patientId)

	var usage int64
	err := s.rc.Watch(s.ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(s.ctx, func(pipe redis.Pipeliner) error {
			var start int64
			if ss, err := tx.HGet(s.ctx, key, sessionId).Result(); err == nil && ss != "" {
				start, _ = strconv.ParseInt(ss, 10, 64)
			}
			if start > 0 {
				usage = time.Now().Unix() - start
				_, _ = pipe.HIncrBy(s.ctx, key, "total_usage", usage).Result()
			}
			_, _ = pipe.HDel(s.ctx, key, sessionId).Result()
			return nil
		})
		return err
	}, key)

	if err != nil {
		return 0, err
	}
	return usage, nil
}

func (s *RedisService) GetTotalUsageByPatientId(patientId string) (string, error) {
	key := fmt.Sprintf("%s:%s:usage", SpeechServiceRedisKey, patientId)
	return s.rc.HGet(s.ctx, key, "total_usage").Result()
}
