package factory

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisConnection connects to a single Redis server or a Sentinel group
// and stores the verified client on the config.
func NewRedisConnection(ctx context.Context, appCnf *config.AppConfig) error {
	info := appCnf.RedisInfo
	var rdb *redis.Client
	var tlsConfig *tls.Config

	if info.UseTLS {
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	if info.SentinelAddresses != nil {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			SentinelAddrs:    info.SentinelAddresses,
			SentinelUsername: info.SentinelUsername,
			SentinelPassword: info.SentinelPassword,
			MasterName:       info.MasterName,
			Username:         info.Username,
			Password:         info.Password,
			DB:               info.DBName,
			TLSConfig:        tlsConfig,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:      info.Host,
			Username:  info.Username,
			Password:  info.Password,
			DB:        info.DBName,
			TLSConfig: tlsConfig,
		})
	}

	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return err
	}

	serverInfo, err := rdb.Info(ctx, "server").Result()
	if err == nil && serverInfo != "" {
		for _, line := range strings.Split(serverInfo, "\r\n") {
			if strings.HasPrefix(line, "redis_version:") {
				version := strings.TrimPrefix(line, "redis_version:")
				appCnf.Logger.WithField("version", version).Info("successfully connected to Redis")
				break
			}
		}
	}

	appCnf.RDS = rdb
	return nil
}
