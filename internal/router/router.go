// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/reelclub/movienight/internal/config"
	"github.com/reelclub/movienight/internal/handler"
	"github.com/reelclub/movienight/internal/middleware"
	"github.com/reelclub/movienight/internal/repository"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Nights   *handler.NightHandler
	Roster   *handler.RosterHandler
	Public   *handler.PublicHandler
	Metadata *handler.MetadataHandler
}

// Register mounts all routes. Three surfaces exist:
//   - /v1/auth: credential exchange, rate limited, no session required;
//   - /v1 (member): everything behind SessionAuth, scoped to the caller's group;
//   - /v1/profile/:handle: the public surface, cached reads and
//     secret-gated writes, no session involved.
func Register(e *echo.Echo, h Handlers, sessions *repository.SessionRepo, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Credential exchange. Rate limited to slow down brute forcing of
	// handles, passwords and beta keys.
	auth := e.Group("/v1/auth", limiter)
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/signin", h.Auth.Signin)
	auth.GET("/beta-keys/:key", h.Auth.CheckBetaKey)

	// Member surface: every route below runs with a validated session and
	// operates only on the caller's own group.
	member := e.Group("/v1")
	member.Use(middleware.SessionAuth(sessions))
	member.POST("/nights", h.Nights.Create)
	member.GET("/nights", h.Nights.List)
	member.POST("/nights/:id/nominations", h.Nights.Nominate)
	member.POST("/nights/:id/pick", h.Nights.Pick)
	member.POST("/nights/:id/clear", h.Nights.Clear)
	member.DELETE("/nights/:id", h.Nights.Cancel)
	member.GET("/watched", h.Nights.Watched)
	member.GET("/roster", h.Roster.List)
	member.POST("/roster", h.Roster.Add)
	member.DELETE("/roster/:imdb_id", h.Roster.Remove)
	member.GET("/movies/search", h.Metadata.Search)
	member.GET("/movies/:imdb_id", h.Metadata.ByID)

	// Public profile surface: reads are cached, secret-bearing writes are
	// rate limited like the auth routes.
	e.GET("/v1/profile/:handle", h.Public.Profile, cache)
	e.POST("/v1/profile/:handle/roster", h.Public.AddToRoster, limiter)
	e.POST("/v1/profile/:handle/nights/:id/nominations", h.Public.Nominate, limiter)
}
