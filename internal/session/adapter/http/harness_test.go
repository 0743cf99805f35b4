package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"melodiapp-web/internal/navigation"
	sessionhttp "melodiapp-web/internal/session/adapter/http"
	"melodiapp-web/internal/session/adapter/persistence/memory"
	"melodiapp-web/internal/session/adapter/security"
	"melodiapp-web/internal/session/config"
	"melodiapp-web/internal/session/domain/repository"
	"melodiapp-web/internal/session/testutil"
	"melodiapp-web/internal/session/usecase"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// harness wires the HTTP adapter the same way the session module does.
type harness struct {
	app      *fiber.App
	cfg      *config.Config
	registry *usecase.Registry
	bus      *eventbus.EventBus
	tokens   *testutil.TokenFixture

	mu     sync.Mutex
	events []eventbus.Event
}

func newHarness(t *testing.T, storage repository.TabStorage, renderer sessionhttp.ViewRenderer) *harness {
	t.Helper()

	if storage == nil {
		storage = memory.NewStorage(0)
	}
	cfg := testutil.SessionConfig()
	log := logger.NewNopLogger()
	bus := eventbus.NewEventBus(log)

	decoder, err := security.NewJWTDecoder(cfg, log)
	require.NoError(t, err)
	registry, err := usecase.NewRegistry(usecase.StoreDeps{
		Storage:   storage,
		Decoder:   decoder,
		Navigator: usecase.NewBusNavigator(bus, log),
		Bus:       bus,
		Logger:    log,
	})
	require.NoError(t, err)

	table := navigation.DefaultTable()
	guard, err := navigation.NewGuard(table, cfg.LoginRoute, cfg.LandingRoute, log)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(sessionhttp.RequestID(), sessionhttp.RequestContext())
	app.Use(sessionhttp.NewTabMiddleware(cfg).Identify())
	sessionhttp.NewSessionHTTPHandler(registry, log).RegisterRoutes(app)
	sessionhttp.NewSessionFeedHandler(registry, bus, log).RegisterRoutes(app)
	sessionhttp.NewViewHandler(renderer).RegisterRoutes(app, table,
		sessionhttp.NewGuardMiddleware(registry, guard, table, bus, log))

	h := &harness{
		app:      app,
		cfg:      cfg,
		registry: registry,
		bus:      bus,
		tokens:   testutil.NewTokenFixture(),
	}
	record := func(_ context.Context, event eventbus.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, event)
		return nil
	}
	bus.Subscribe(eventbus.EventTypeNavigationDenied, record)
	bus.Subscribe(eventbus.EventTypeNavigationRequested, record)
	return h
}

func (h *harness) eventsOf(eventType string) []eventbus.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []eventbus.Event
	for _, e := range h.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) do(t *testing.T, method, path, tabID, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tabID != "" {
		req.Header.Set("X-Tab-ID", tabID)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (h *harness) login(t *testing.T, tabID, token string) {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/session", tabID, `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
