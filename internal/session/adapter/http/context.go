package http

import (
	"context"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/session/usecase"
	"melodiapp-web/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals keys. Websocket handlers read locals by string key.
const (
	localsRequestID = string(contextkeys.RequestIDKey)
	localsTabID     = string(contextkeys.TabIDKey)
	localsSession   = "session"
)

// SessionProvider hands out the session store of a tab.
type SessionProvider interface {
	// Acquire returns the tab's store; release must be called once the
	// caller is done with it.
	Acquire(ctx context.Context, tabID string) (store *usecase.SessionStore, release func(), err error)
}

// GetTabID returns the tab id assigned by TabMiddleware.
func GetTabID(c *fiber.Ctx) (string, bool) {
	tabID, ok := c.Locals(localsTabID).(string)
	return tabID, ok && tabID != ""
}

// GetSessionState returns the session state the guard saw for this request.
func GetSessionState(c *fiber.Ctx) (model.SessionState, bool) {
	state, ok := c.Locals(localsSession).(model.SessionState)
	return state, ok
}
