package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/announcer"
	"github.com/MrSnakeDoc/herald/internal/logger"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time   // for testing, defaults to time.Now
	AllowedHosts    []string           // Host headers allowed to access the server
	AllowedCIDRS    []string           // IPs allowed to access the API and the infra endpoints
	TrustProxy      bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Announcer       *announcer.Service // the feed facade every API route goes through
	RedisClient     *redis.Client      // nil when the snapshot cache is disabled
	RateLimitBurst  int                // mutation burst per client IP
	RateLimitPerMin int                // mutation refill per client IP and minute
	Draining        <-chan struct{}    // closed when the server starts shutting down, set by httpserver.New
}
