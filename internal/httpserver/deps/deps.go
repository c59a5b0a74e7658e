package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/navbar/internal/host"
	"github.com/MrSnakeDoc/navbar/internal/logger"
	"github.com/MrSnakeDoc/navbar/internal/navigation"
	redisstore "github.com/MrSnakeDoc/navbar/internal/store/redis"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time     // for testing, defaults to time.Now
	AllowedHosts    []string             // Host headers allowed to access the server
	AllowedCIDRS    []string             // IPs allowed to access infra/reload endpoints
	TrustProxy      bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	SiteDir         string               // Rendered book directory served to clients
	Bus             *host.Bus            // Host event bus; page-change is emitted per served page
	Renderer        *navigation.Renderer // Navigation state, read for readiness and infra
	RedisClient     *redis.Client        // nil when Redis is disabled
	Store           *redisstore.Store    // nil when Redis is disabled
	ReloadTrigger   chan struct{}        // Channel to trigger a manual book reload
	RateLimitBurst  int                  // Page requests allowed in a burst per client IP
	RateLimitPerMin int                  // Sustained page requests per minute per client IP
}
