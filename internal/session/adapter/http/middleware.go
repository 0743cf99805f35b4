package http

import (
	"fmt"
	"time"

	"melodiapp-web/internal/shared/logger"
	"melodiapp-web/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recover turns panics into 500 responses and logs them.
func Recover(log logger.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("Panic while handling request",
				zap.String("path", c.Path()),
				zap.String("panic", fmt.Sprint(e)))
		},
	})
}

// RequestID assigns X-Request-ID unless the client sent one.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: localsRequestID,
	})
}

// RequestContext moves per-request values set by earlier middleware into
// the user context so loggers further down can see them.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(localsRequestID).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), fiberutils.CopyString(id)))
		}
		return c.Next()
	}
}

// CORS allows the configured origins. Credentials are only allowed for an
// explicit origin list.
func CORS(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Requested-With,X-Request-ID,X-Tab-ID",
		ExposeHeaders:    "X-Tab-ID,X-Request-ID",
		AllowCredentials: allowOrigins != "*",
		MaxAge:           86400,
	})
}

// SecurityHeaders adds security headers
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Cache-Control", "no-store")
		return c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		log.WithContext(c.UserContext()).Debug("Request handled",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)))
		return err
	}
}

// RateLimit caps requests per tab, or per client IP before a tab is known.
// A max of zero disables it.
func RateLimit(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if tabID, ok := GetTabID(c); ok {
				return "tab:" + tabID
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests",
			})
		},
	})
}
