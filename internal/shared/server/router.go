package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noknok06/stock-dialy-sub000/internal/analysis"
	"github.com/noknok06/stock-dialy-sub000/internal/companies"
	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/config"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/metrics"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/server/middleware"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/server/respond"
)

// RouterDeps carries pre-built handlers into route registration.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analysis.Handler
	DocumentHandler *disclosures.Handler
	CompanyHandler  *companies.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.CompanyHandler != nil {
		deps.CompanyHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		// Starting an analysis spawns background work; throttle per client IP.
		limited := api.Group("")
		limited.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"ANALYZE": {Rate: 0.5, Burst: 5},
			},
			DefaultGroup: "ANALYZE",
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost {
					return "ANALYZE"
				}
				return "READ"
			},
		}))
		deps.AnalysisHandler.RegisterRoutes(limited)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
