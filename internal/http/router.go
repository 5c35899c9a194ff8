package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/pk46/tasker/internal/config"
	"github.com/pk46/tasker/internal/http/handler"
	"github.com/pk46/tasker/internal/http/middleware"
)

// NewRouter wires gin routes and middleware. Login, refresh and health are
// the only public paths; everything else sits behind the authentication
// gate.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, userHandler *handler.UserHandler, auth *middleware.Auth, throttle *middleware.Throttle, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if throttle != nil {
		r.Use(throttle.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/me", auth.RequireAuth, authHandler.Me)
		}

		users := api.Group("/users", auth.RequireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
		}
	}

	return r
}
