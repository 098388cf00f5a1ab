package orderlock

import (
	"github.com/rentkit/payflow/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module selects the locker by config: redis when an address is set,
// otherwise the in-process keyed mutex.
var Module = fx.Module("orderlock",
	fx.Provide(func(cfg config.Config, log *zap.Logger) Locker {
		if cfg.RedisAddr == "" {
			return NewLocalLocker()
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Named("orderlock").Info("using redis order locks", zap.String("addr", cfg.RedisAddr))
		return NewRedisLocker(client, cfg.LockTTL)
	}),
)
