package usecase

import (
	"context"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"go.uber.org/zap"
)

// BusNavigator publishes navigation.requested events. Connected clients
// receive them through the session feed.
type BusNavigator struct {
	bus    eventbus.EventBusInterface
	logger logger.Logger
}

// NewBusNavigator creates a navigator publishing on bus.
func NewBusNavigator(bus eventbus.EventBusInterface, log logger.Logger) *BusNavigator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BusNavigator{bus: bus, logger: log.WithComponent("navigator")}
}

// Navigate asks tabID to go to path.
func (n *BusNavigator) Navigate(ctx context.Context, tabID, path string) {
	event := eventbus.NewBasicEventWithSource(eventbus.EventTypeNavigationRequested,
		model.NavigationEvent{TabID: tabID, Path: path}, "navigator")
	if err := n.bus.Publish(ctx, event); err != nil {
		n.logger.WithContext(ctx).Warn("Failed to publish navigation request",
			zap.String("path", path),
			zap.Error(err))
	}
}
