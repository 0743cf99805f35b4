package http

import (
	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/session/usecase"
	"melodiapp-web/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SetSessionRequest is the body of POST /api/session.
type SetSessionRequest struct {
	Token string `json:"token"`
}

// SessionResponse reports the tab's session after an operation. Redirect is
// set when the store sent the tab elsewhere.
type SessionResponse struct {
	model.SessionState
	Redirect string `json:"redirect,omitempty"`
}

// SessionHTTPHandler exposes the tab session store over HTTP.
type SessionHTTPHandler struct {
	sessions SessionProvider
	log      logger.Logger
}

// NewSessionHTTPHandler creates a new session HTTP handler
func NewSessionHTTPHandler(sessions SessionProvider, log logger.Logger) *SessionHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SessionHTTPHandler{
		sessions: sessions,
		log:      log.WithComponent("session_handler"),
	}
}

// RegisterRoutes mounts the session API on router.
func (h *SessionHTTPHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/api/session", h.GetSession)
	router.Post("/api/session", h.SetSession)
	router.Delete("/api/session", h.ClearSession)
}

func (h *SessionHTTPHandler) store(c *fiber.Ctx) (*usecase.SessionStore, func(), error) {
	tabID, ok := GetTabID(c)
	if !ok {
		return nil, nil, model.ErrTabIDRequired
	}
	return h.sessions.Acquire(c.UserContext(), tabID)
}

// GetSession returns the current session of the tab.
func (h *SessionHTTPHandler) GetSession(c *fiber.Ctx) error {
	store, release, err := h.store(c)
	if err != nil {
		return writeError(c, err)
	}
	defer release()
	return c.JSON(SessionResponse{SessionState: store.Snapshot()})
}

// SetSession stores the posted token. A token that does not decode leaves
// the tab logged out and redirects it to the root path.
func (h *SessionHTTPHandler) SetSession(c *fiber.Ctx) error {
	var req SetSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_body",
			Message: "Invalid request body",
		})
	}

	store, release, err := h.store(c)
	if err != nil {
		return writeError(c, err)
	}
	defer release()

	if err := store.SetSession(c.UserContext(), req.Token); err != nil {
		h.log.WithContext(c.UserContext()).Error("Failed to set session", zap.Error(err))
		return writeError(c, err)
	}

	resp := SessionResponse{SessionState: store.Snapshot()}
	if req.Token != "" && !resp.IsLoggedIn {
		resp.Redirect = usecase.RootPath
	}
	return c.JSON(resp)
}

// ClearSession logs the tab out.
func (h *SessionHTTPHandler) ClearSession(c *fiber.Ctx) error {
	store, release, err := h.store(c)
	if err != nil {
		return writeError(c, err)
	}
	defer release()

	if err := store.ClearSession(c.UserContext()); err != nil {
		h.log.WithContext(c.UserContext()).Error("Failed to clear session", zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(SessionResponse{
		SessionState: store.Snapshot(),
		Redirect:     usecase.RootPath,
	})
}
