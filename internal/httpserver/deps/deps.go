package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/notify"
	"github.com/MrSnakeDoc/brainsync/internal/remote"
	"github.com/MrSnakeDoc/brainsync/internal/synchronizer"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time                // for testing, defaults to time.Now
	AllowedHosts   []string                        // Host headers allowed to access the server
	AllowedCIDRS   []string                        // IPs allowed to access the API and probes
	TrustProxy     bool                            // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Sync           *synchronizer.Synchronizer      // owns the bookmark collection and counters
	Remote         *remote.Client                  // direct reads that bypass the collection (get one, breakdowns, health)
	Toasts         *notify.Queue                   // transient notifications for the view
	TagsLimit      int                             // default limit for the tags breakdown
	RefreshTrigger chan struct{}                   // Channel to trigger a background refetch
	RateLimit      func(http.Handler) http.Handler // shared limiter for mutation routes, nil = none
}
