// Package httpapi wires the HTTP transport (Gin) to the intake and retrieval
// services. It owns middleware ordering, CORS and security posture, the body
// size cap, and the route table.
//
// Routes (under cfg.APIBasePath, "/sjdb" by default):
//
//	POST   /submit              intake (rate limited per caller)
//	DELETE /submissions/:name   withdrawal, answers 501
//	GET    /submissions         bearer, gzip
//	GET    /submissions/:name   bearer, inline JSON
//	GET    /files/:name         bearer, attachment download
//
// plus /version, /health, /metrics and, when enabled, /docs/*any at the root.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/runxiyu/ykps-sjdb/internal/config"
	"github.com/runxiyu/ykps-sjdb/internal/http/handlers"
	"github.com/runxiyu/ykps-sjdb/internal/http/middleware"
)

// Retrieval is the moderator read path plus its token check.
type Retrieval interface {
	handlers.RetrievalService
	middleware.Authorizer
}

// Deps are the services the routes are bound to.
type Deps struct {
	Submissions handlers.SubmissionService
	Retrieval   Retrieval
	// Banner is served verbatim by /version.
	Banner string
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: correlation id
//  3. IdentityFromHeaders: caller identity from the login proxy
//  4. RedactingLogger: access log and request-scoped logger
//  5. Recovery: panics to JSON 500, logged with the above context
//  6. Body size limit
//  7. Metrics
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.IdentityFromHeaders(middleware.IdentityOptions{
		UserHeader: cfg.IdentityHeader,
		NameHeader: cfg.IdentityNameHeader,
	}))
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{cfg.IdentityHeader, cfg.IdentityNameHeader},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(cfg.MaxRequestBytes))
	r.Use(middleware.Metrics("/metrics"))
	r.Use(corsPolicy(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", handlers.Health)
	r.GET("/version", handlers.Version(deps.Banner))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	sh := handlers.NewSubmissionHandler(deps.Submissions, cfg.MaxRequestBytes, cfg.MultipartMemory)
	rh := handlers.NewRetrievalHandler(deps.Retrieval)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIdentityOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/submit", rl.Handler(), sh.Submit)
		api.DELETE("/submissions/:name", sh.Withdraw)
	}

	mod := api.Group("",
		middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
		middleware.BearerAuth(deps.Retrieval),
	)
	{
		mod.GET("/submissions", gzip.Gzip(gzip.DefaultCompression), rh.ListSubmissions)
		mod.GET("/submissions/:name", rh.GetSubmission)
		mod.GET("/files/:name", rh.GetFile)
	}
}

// corsPolicy allows every origin when none are configured. Credentials are
// never allowed: moderators authenticate with a bearer header, not cookies.
func corsPolicy(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps every request body at maxBytes. Reads past the cap fail with
// *http.MaxBytesError, which the intake handler reports as 413.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
