package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"melodiapp-web/internal/navigation"
	sessionhttp "melodiapp-web/internal/session/adapter/http"
	"melodiapp-web/internal/session/adapter/security"
	"melodiapp-web/internal/session/config"
	"melodiapp-web/internal/session/domain/repository"
	"melodiapp-web/internal/session/usecase"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Option customizes a SessionModule.
type Option func(*options)

type options struct {
	table    *navigation.Table
	renderer sessionhttp.ViewRenderer
}

// WithRouteTable replaces the default route table.
func WithRouteTable(table *navigation.Table) Option {
	return func(o *options) { o.table = table }
}

// WithViewRenderer replaces the JSON view renderer.
func WithViewRenderer(renderer sessionhttp.ViewRenderer) Option {
	return func(o *options) { o.renderer = renderer }
}

// sweeper is implemented by storages that expire items themselves.
type sweeper interface {
	Sweep() int
}

// SessionModule represents the complete session and navigation module
type SessionModule struct {
	config    *config.Config
	storage   repository.TabStorage
	decoder   *security.JWTDecoder
	navigator *usecase.BusNavigator
	registry  *usecase.Registry
	table     *navigation.Table
	guard     *navigation.Guard
	bus       eventbus.EventBusInterface
	log       logger.Logger

	tabMiddleware   *sessionhttp.TabMiddleware
	guardMiddleware *sessionhttp.GuardMiddleware
	sessionHandler  *sessionhttp.SessionHTTPHandler
	viewHandler     *sessionhttp.ViewHandler
	feedHandler     *sessionhttp.SessionFeedHandler

	stopMu sync.Mutex
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionModule creates a new session module instance
func NewSessionModule(
	cfg *config.Config,
	storage repository.TabStorage,
	bus eventbus.EventBusInterface,
	log logger.Logger,
	opts ...Option,
) (*SessionModule, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session config cannot be nil")
	}
	if storage == nil {
		return nil, fmt.Errorf("tab storage cannot be nil")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus cannot be nil")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.table == nil {
		o.table = navigation.DefaultTable()
	}

	guard, err := navigation.NewGuard(o.table, cfg.LoginRoute, cfg.LandingRoute, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create navigation guard: %w", err)
	}

	decoder, err := security.NewJWTDecoder(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create token decoder: %w", err)
	}

	navigator := usecase.NewBusNavigator(bus, log)
	registry, err := usecase.NewRegistry(usecase.StoreDeps{
		Storage:   storage,
		Decoder:   decoder,
		Navigator: navigator,
		Bus:       bus,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session registry: %w", err)
	}

	return &SessionModule{
		config:          cfg,
		storage:         storage,
		decoder:         decoder,
		navigator:       navigator,
		registry:        registry,
		table:           o.table,
		guard:           guard,
		bus:             bus,
		log:             log.WithComponent("session_module"),
		tabMiddleware:   sessionhttp.NewTabMiddleware(cfg),
		guardMiddleware: sessionhttp.NewGuardMiddleware(registry, guard, o.table, bus, log),
		sessionHandler:  sessionhttp.NewSessionHTTPHandler(registry, log),
		viewHandler:     sessionhttp.NewViewHandler(o.renderer),
		feedHandler:     sessionhttp.NewSessionFeedHandler(registry, bus, log),
	}, nil
}

// RegisterRoutes registers the session API, the session feed and every view
// route. All of them identify the tab first.
func (m *SessionModule) RegisterRoutes(router fiber.Router) {
	router.Use(m.tabMiddleware.Identify())
	router.Use("/api/session", sessionhttp.RateLimit(m.config.RateLimitMax, m.config.RateLimitWindow))
	m.sessionHandler.RegisterRoutes(router)
	m.feedHandler.RegisterRoutes(router)
	m.viewHandler.RegisterRoutes(router, m.table, m.guardMiddleware)
}

// Start runs the background sweepers until Stop is called.
func (m *SessionModule) Start(ctx context.Context) {
	m.stopMu.Lock()
	defer m.stopMu.Unlock()
	if m.stop != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.stop = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.registry.RunJanitor(ctx, m.config.SweepInterval, m.config.StoreIdleTimeout)
	}()

	if s, ok := m.storage.(sweeper); ok && m.config.SweepInterval > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.sweepStorage(ctx, s)
		}()
	}

	m.log.Info("Session module started",
		zap.String("storage", m.config.StorageDriver),
		zap.Bool("verifiesSignatures", m.decoder.Verifies()))
}

func (m *SessionModule) sweepStorage(ctx context.Context, s sweeper) {
	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				m.log.Debug("Expired tab items swept", zap.Int("count", n))
			}
		}
	}
}

// Stop performs cleanup when the module is shut down
func (m *SessionModule) Stop() error {
	m.stopMu.Lock()
	stop := m.stop
	m.stop = nil
	m.stopMu.Unlock()

	if stop != nil {
		stop()
		m.wg.Wait()
	}
	return nil
}

// HealthCheck pings the tab storage.
func (m *SessionModule) HealthCheck(ctx context.Context) error {
	return m.storage.Ping(ctx)
}

// Registry returns the per-tab session registry.
func (m *SessionModule) Registry() *usecase.Registry {
	return m.registry
}

// Table returns the route table.
func (m *SessionModule) Table() *navigation.Table {
	return m.table
}

// Guard returns the navigation guard.
func (m *SessionModule) Guard() *navigation.Guard {
	return m.guard
}
