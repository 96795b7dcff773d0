package routes

import (
	"github.com/justinas/alice"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/mw"
)

// guarded restricts a route to the allowed client networks and hosts.
func guarded(d deps.Deps) alice.Chain {
	return alice.New(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
}

// mutating is guarded plus the shared rate limiter.
func mutating(d deps.Deps) alice.Chain {
	c := guarded(d)
	if d.RateLimit != nil {
		c = c.Append(d.RateLimit)
	}
	return c
}
