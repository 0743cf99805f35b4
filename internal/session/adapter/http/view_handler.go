package http

import (
	"melodiapp-web/internal/navigation"
	"melodiapp-web/internal/session/domain/model"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

// View describes what the renderer has to show for an allowed navigation.
type View struct {
	Route   string             `json:"route"`
	Name    string             `json:"view"`
	Path    string             `json:"path"`
	Params  map[string]string  `json:"params,omitempty"`
	Session model.SessionState `json:"session"`
}

// ViewRenderer draws a view. The web client owns the actual markup.
type ViewRenderer interface {
	Render(c *fiber.Ctx, view View) error
}

// JSONRenderer answers with the view descriptor as JSON.
type JSONRenderer struct{}

// Render writes view as JSON.
func (JSONRenderer) Render(c *fiber.Ctx, view View) error {
	return c.JSON(view)
}

// ViewHandler serves the view of a route once the guard let it through.
type ViewHandler struct {
	renderer ViewRenderer
}

// NewViewHandler creates a ViewHandler. A nil renderer renders JSON.
func NewViewHandler(renderer ViewRenderer) *ViewHandler {
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	return &ViewHandler{renderer: renderer}
}

// Serve returns the handler of route.
func (h *ViewHandler) Serve(route navigation.Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, _ := GetSessionState(c)
		params := make(map[string]string, len(c.AllParams()))
		for k, v := range c.AllParams() {
			params[fiberutils.CopyString(k)] = fiberutils.CopyString(v)
		}
		return h.renderer.Render(c, View{
			Route:   route.Name,
			Name:    route.View,
			Path:    fiberutils.CopyString(c.Path()),
			Params:  params,
			Session: state,
		})
	}
}

// RegisterRoutes mounts a GET handler for every route of table, each behind
// the guard.
func (h *ViewHandler) RegisterRoutes(router fiber.Router, table *navigation.Table, guard *GuardMiddleware) {
	for _, route := range table.Routes() {
		router.Get(route.Path, guard.For(route), h.Serve(route))
	}
}
