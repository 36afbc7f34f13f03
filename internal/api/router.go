package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/kermarrec/hgtpipe/internal/api/controllers"
	"github.com/kermarrec/hgtpipe/internal/app"
)

func RegisterRoutes(e *echo.Echo, app *app.Context, folder string) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	elevCtrl := &controllers.ElevationController{App: app, Folder: folder}

	// Point elevation lookup
	e.GET("/elevation", elevCtrl.HandleLookup)

	// Liveness probe
	e.GET("/health", elevCtrl.HandleHealth)
}
