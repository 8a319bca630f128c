package locker

import (
	"strings"

	"github.com/grannhjalp/grannhjalp/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Provide returns a nil Locker when Redis is not configured; callers
// treat that as "lock always free, single instance".
func Provide(cfg config.Config) *Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return NewLocker(client)
}

var Module = fx.Module("locker",
	fx.Provide(Provide),
)
