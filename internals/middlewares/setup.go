package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"coursereg_backend/internals/middlewares/logger"
)

type SetupOpts struct {
	CorsOrigins    []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// SetupMiddlewares installs the global chain: request id, recover, request
// log, CORS and the global rate limiter.
func SetupMiddlewares(app *fiber.App, o SetupOpts) {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	app.Use(logger.RequestID(o.RequestTimeout))
	app.Use(RecoveryMiddleware(o.Logger))
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware(o.CorsOrigins))
	app.Use(GlobalRateLimiter())
}
