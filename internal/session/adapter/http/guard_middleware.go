package http

import (
	"melodiapp-web/internal/navigation"
	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"
	"melodiapp-web/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GuardMiddleware runs the navigation guard in front of every view route.
type GuardMiddleware struct {
	sessions SessionProvider
	guard    *navigation.Guard
	table    *navigation.Table
	bus      eventbus.EventBusInterface
	log      logger.Logger
}

// NewGuardMiddleware creates a GuardMiddleware. bus may be nil.
func NewGuardMiddleware(
	sessions SessionProvider,
	guard *navigation.Guard,
	table *navigation.Table,
	bus eventbus.EventBusInterface,
	log logger.Logger,
) *GuardMiddleware {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &GuardMiddleware{
		sessions: sessions,
		guard:    guard,
		table:    table,
		bus:      bus,
		log:      log.WithComponent("guard_middleware"),
	}
}

// For guards navigations to route. Redirects answer 302 with the target
// route's path; allowed navigations continue with the session state in locals.
func (m *GuardMiddleware) For(route navigation.Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tabID, ok := GetTabID(c)
		if !ok {
			return writeError(c, model.ErrTabIDRequired)
		}

		ctx := utils.WithRoute(c.UserContext(), route.Name)
		store, release, err := m.sessions.Acquire(ctx, tabID)
		if err != nil {
			m.log.WithContext(ctx).Error("Failed to load tab session", zap.Error(err))
			return writeError(c, err)
		}
		defer release()

		decision := m.guard.Decide(ctx, route, store.Session())
		if decision.Outcome == navigation.Redirect {
			target, err := m.table.PathFor(decision.Target, nil)
			if err != nil {
				m.log.WithContext(ctx).Error("Redirect target has no path",
					zap.String("target", decision.Target),
					zap.Error(err))
				return fiber.ErrInternalServerError
			}
			if decision.Reason == navigation.ReasonAuthRequired {
				m.publishDenied(c, tabID, route, target, decision.Reason)
			}
			return c.Redirect(target, fiber.StatusFound)
		}

		c.SetUserContext(ctx)
		c.Locals(localsSession, store.Snapshot())
		return c.Next()
	}
}

func (m *GuardMiddleware) publishDenied(c *fiber.Ctx, tabID string, route navigation.Route, target, reason string) {
	if m.bus == nil {
		return
	}
	event := eventbus.NewBasicEventWithSource(eventbus.EventTypeNavigationDenied, model.NavigationEvent{
		TabID:  tabID,
		Path:   target,
		Route:  route.Name,
		Reason: reason,
	}, "guard_middleware")
	if err := m.bus.Publish(c.UserContext(), event); err != nil {
		m.log.Warn("Failed to publish navigation denial", zap.Error(err))
	}
}
