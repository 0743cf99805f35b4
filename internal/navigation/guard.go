package navigation

import (
	"context"
	"fmt"

	"melodiapp-web/internal/shared/logger"

	"go.uber.org/zap"
)

// SessionState is what the guard needs to know about the navigating tab.
type SessionState interface {
	IsLoggedIn() bool
}

// Outcome of a guard decision.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Reasons attached to redirect decisions.
const (
	ReasonAlreadyLoggedIn = "already_logged_in"
	ReasonAuthRequired    = "auth_required"
)

// Decision is the result of guarding one navigation. Target is a route name
// and is set only for redirects.
type Decision struct {
	Outcome Outcome
	Target  string
	Reason  string
}

// Guard decides every navigation from the destination route and the
// session state alone.
type Guard struct {
	loginRoute   string
	landingRoute string
	logger       logger.Logger
}

// NewGuard creates a guard. Both route names must exist in table and have
// paths without parameters.
func NewGuard(table *Table, loginRoute, landingRoute string, log logger.Logger) (*Guard, error) {
	if table == nil {
		return nil, fmt.Errorf("route table cannot be nil")
	}
	if _, ok := table.Lookup(loginRoute); !ok {
		return nil, fmt.Errorf("login route %q is not in the route table", loginRoute)
	}
	if _, ok := table.Lookup(landingRoute); !ok {
		return nil, fmt.Errorf("landing route %q is not in the route table", landingRoute)
	}
	// Redirect targets are resolved without parameters.
	if _, err := table.PathFor(loginRoute, nil); err != nil {
		return nil, fmt.Errorf("login route cannot be a redirect target: %w", err)
	}
	if _, err := table.PathFor(landingRoute, nil); err != nil {
		return nil, fmt.Errorf("landing route cannot be a redirect target: %w", err)
	}
	if landingRoute == loginRoute {
		return nil, fmt.Errorf("login and landing route must differ")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Guard{
		loginRoute:   loginRoute,
		landingRoute: landingRoute,
		logger:       log.WithComponent("navigation_guard"),
	}, nil
}

// LoginRoute returns the login route name.
func (g *Guard) LoginRoute() string { return g.loginRoute }

// LandingRoute returns the route logged in users are sent to.
func (g *Guard) LandingRoute() string { return g.landingRoute }

// Decide guards a navigation to route to. The first matching branch wins:
// a logged in tab going to the login route is sent to the landing route, a
// logged out tab going to a protected route is sent to the login route,
// everything else is allowed.
func (g *Guard) Decide(ctx context.Context, to Route, state SessionState) Decision {
	loggedIn := state != nil && state.IsLoggedIn()

	if to.Name == g.loginRoute && loggedIn {
		return Decision{Outcome: Redirect, Target: g.landingRoute, Reason: ReasonAlreadyLoggedIn}
	}

	if to.RequiresAuth && !loggedIn {
		g.logger.WithContext(ctx).Warn("Navigation denied: authentication required",
			zap.String("to", to.Name),
			zap.String("path", to.Path),
			zap.String("redirect", g.loginRoute))
		return Decision{Outcome: Redirect, Target: g.loginRoute, Reason: ReasonAuthRequired}
	}

	return Decision{Outcome: Allow}
}
