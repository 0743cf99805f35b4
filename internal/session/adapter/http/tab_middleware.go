package http

import (
	"regexp"

	"melodiapp-web/internal/session/config"
	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// TabMiddleware identifies the browser tab a request comes from.
type TabMiddleware struct {
	headerName     string
	cookieName     string
	queryParam     string
	cookiePath     string
	cookieDomain   string
	cookieSecure   bool
	cookieSameSite string
}

// NewTabMiddleware creates a TabMiddleware from the session configuration.
func NewTabMiddleware(cfg *config.Config) *TabMiddleware {
	return &TabMiddleware{
		headerName:     cfg.TabHeaderName,
		cookieName:     cfg.TabCookieName,
		queryParam:     cfg.TabQueryParam,
		cookiePath:     cfg.CookiePath,
		cookieDomain:   cfg.CookieDomain,
		cookieSecure:   cfg.CookieSecure,
		cookieSameSite: cfg.CookieSameSite,
	}
}

// Identify resolves the tab id from the header, then the cookie, then the
// query string. A request without one gets a fresh id as a session cookie.
func (m *TabMiddleware) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tabID := m.extractTabID(c)
		if tabID != "" && !tabIDPattern.MatchString(tabID) {
			return writeError(c, model.ErrInvalidTabID)
		}

		if tabID == "" {
			tabID = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:        m.cookieName,
				Value:       tabID,
				Path:        m.cookiePath,
				Domain:      m.cookieDomain,
				Secure:      m.cookieSecure,
				HTTPOnly:    true,
				SameSite:    m.cookieSameSite,
				SessionOnly: true,
			})
		}
		c.Set(m.headerName, tabID)

		c.Locals(localsTabID, tabID)
		c.SetUserContext(utils.WithTabID(c.UserContext(), tabID))
		return c.Next()
	}
}

// extractTabID returns a copy of the tab id. fasthttp reuses the request
// buffers, and the id outlives the request as registry and storage key.
func (m *TabMiddleware) extractTabID(c *fiber.Ctx) string {
	if tabID := c.Get(m.headerName); tabID != "" {
		return fiberutils.CopyString(tabID)
	}
	if tabID := c.Cookies(m.cookieName); tabID != "" {
		return fiberutils.CopyString(tabID)
	}
	if m.queryParam != "" {
		return fiberutils.CopyString(c.Query(m.queryParam))
	}
	return ""
}
