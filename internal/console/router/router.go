// Package router registers the console routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-console/internal/console/handler"
	"github.com/kart-io/mongo-console/internal/pkg/httputils"
	"github.com/kart-io/mongo-console/pkg/infra/middleware"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/response"
)

// Register installs middleware and routes on engine.
func Register(engine *gin.Engine, config *handler.ConfigHandler, status *handler.StatusHandler) {
	engine.Use(middleware.RequestID(), middleware.Logger("/health"))

	// Config routes answer only 200 or 400, panics included.
	cfg := engine.Group("/config", middleware.RecoveryWithResponder(func(c *gin.Context, _ *errors.Errno) {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Message{Msg: handler.PrefixConfig + ": internal error"})
	}))
	{
		cfg.POST("/add_config", config.AddConfig)
		cfg.POST("/update_config", config.UpdateConfig)
		cfg.POST("/drop_config", config.DropConfig)
		cfg.POST("/connect_to_private", config.ConnectPrivate)
	}

	api := engine.Group("/api", middleware.Recovery())
	{
		api.GET("/connections", status.List)
		api.GET("/connections/:conn/status", status.Status)
	}

	engine.GET("/health", middleware.Recovery(), status.Health)
	engine.GET("/version", middleware.Recovery(), status.Version)

	engine.NoRoute(func(c *gin.Context) {
		httputils.WriteStatus(c, http.StatusNotFound, errors.ErrRouteNotFound)
	})

	logger.Infow("Console routes registered", "routes", len(engine.Routes()))
}
