package http

import (
	"context"
	"time"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feed message types.
const (
	FeedTypeSession  = "session"
	FeedTypeNavigate = "navigate"
	FeedTypeDenied   = "denied"
	FeedTypeError    = "error"
)

const (
	feedBuffer    = 16
	feedReadLimit = 512
	pongWait      = 60 * time.Second
	pingPeriod    = 50 * time.Second
	writeWait     = 10 * time.Second
)

// FeedMessage is one message of the session feed.
type FeedMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SessionFeedHandler pushes a tab's session changes and navigation requests
// over a websocket.
type SessionFeedHandler struct {
	sessions SessionProvider
	bus      eventbus.EventBusInterface
	log      logger.Logger
}

// NewSessionFeedHandler creates a new SessionFeedHandler.
func NewSessionFeedHandler(sessions SessionProvider, bus eventbus.EventBusInterface, log logger.Logger) *SessionFeedHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SessionFeedHandler{
		sessions: sessions,
		bus:      bus,
		log:      log.WithComponent("session_feed"),
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *SessionFeedHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/ws/session", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/session", websocket.New(h.handleConnection))
}

func (h *SessionFeedHandler) handleConnection(conn *websocket.Conn) {
	tabID, _ := conn.Locals(localsTabID).(string)
	log := h.log.WithFields(map[string]interface{}{"tab_id": tabID})
	if tabID == "" {
		h.writeMessage(conn, FeedMessage{Type: FeedTypeError, Data: model.ErrTabIDRequired.Error()})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan FeedMessage, feedBuffer)
	forward := func(msgType string, match func(data interface{}) (interface{}, bool)) eventbus.Handler {
		return func(_ context.Context, event eventbus.Event) error {
			data, ok := match(event.Data())
			if !ok {
				return nil
			}
			select {
			case out <- FeedMessage{Type: msgType, Data: data}:
			case <-ctx.Done():
			default:
				log.Warn("Session feed is full, dropping message", zap.String("type", msgType))
			}
			return nil
		}
	}

	cancels := []eventbus.CancelFunc{
		h.bus.Subscribe(eventbus.EventTypeSessionChanged, forward(FeedTypeSession, func(data interface{}) (interface{}, bool) {
			ev, ok := data.(model.SessionChangedEvent)
			return ev.State, ok && ev.State.TabID == tabID
		})),
		h.bus.Subscribe(eventbus.EventTypeNavigationRequested, forward(FeedTypeNavigate, func(data interface{}) (interface{}, bool) {
			ev, ok := data.(model.NavigationEvent)
			return ev, ok && ev.TabID == tabID
		})),
		h.bus.Subscribe(eventbus.EventTypeNavigationDenied, forward(FeedTypeDenied, func(data interface{}) (interface{}, bool) {
			ev, ok := data.(model.NavigationEvent)
			return ev, ok && ev.TabID == tabID
		})),
	}
	defer func() {
		for _, cancelSub := range cancels {
			cancelSub()
		}
	}()

	store, release, err := h.sessions.Acquire(ctx, tabID)
	if err != nil {
		log.Error("Failed to load tab session", zap.Error(err))
		h.writeMessage(conn, FeedMessage{Type: FeedTypeError, Data: "session unavailable"})
		return
	}
	defer release()
	if err := h.writeMessage(conn, FeedMessage{Type: FeedTypeSession, Data: store.Snapshot()}); err != nil {
		return
	}

	log.Debug("Session feed connected")
	defer log.Debug("Session feed closed")

	// The client only sends control frames; reading detects disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(feedReadLimit)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("Session feed read error", zap.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-out:
			if err := h.writeMessage(conn, msg); err != nil {
				log.Warn("Failed to write session feed message", zap.Error(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *SessionFeedHandler) writeMessage(conn *websocket.Conn, msg FeedMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
