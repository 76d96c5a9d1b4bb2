package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codm-backend/internal/analyze"
	googleauth "codm-backend/internal/auth"
	"codm-backend/internal/dashboards"
	"codm-backend/internal/services/health"
	"codm-backend/internal/shared/config"
	"codm-backend/internal/shared/metrics"
	"codm-backend/internal/shared/server/middleware"
	"codm-backend/internal/shared/server/respond"
)

const apiPrefix = "/api/v1"

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are
// skipped.
type RouterDeps struct {
	Config     config.Config
	Verifier   middleware.TokenVerifier
	Limiter    *middleware.RateLimiter
	Health     *health.Service
	Dashboards *dashboards.Handler
	Analyze    *analyze.Handler
	GoogleAuth *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		metrics.Middleware(),
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.GroupAnalyze: middleware.PerMinute(deps.Config.AnalyzePerMinute),
			},
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(0)
	}

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	registerMeRoutes(api)
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Dashboards != nil {
		deps.Dashboards.RegisterRoutes(api)
	}
	if deps.Analyze != nil {
		deps.Analyze.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if strings.HasPrefix(c.Request.URL.Path, apiPrefix+"/analyze") {
		return middleware.GroupAnalyze
	}
	return middleware.GroupDefault
}

type meResponse struct {
	UserID  string `json:"userId"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", func(c *gin.Context) {
		userID, ok := middleware.RequireUser(c)
		if !ok {
			return
		}
		respond.OK(c, meResponse{
			UserID:  userID,
			Email:   middleware.UserEmailFromContext(c),
			Name:    middleware.UserNameFromContext(c),
			Picture: middleware.UserPictureFromContext(c),
		})
	})
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
