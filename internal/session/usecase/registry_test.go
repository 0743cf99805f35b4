package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"melodiapp-web/internal/session/adapter/persistence/memory"
	"melodiapp-web/internal/session/adapter/security"
	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/session/testutil"
	"melodiapp-web/internal/session/usecase"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDeps(t *testing.T, storage *memory.Storage) usecase.StoreDeps {
	t.Helper()
	decoder, err := security.NewJWTDecoder(testutil.SessionConfig(), nil)
	require.NoError(t, err)
	bus := eventbus.NewEventBus(logger.NewNopLogger())
	return usecase.StoreDeps{
		Storage:   storage,
		Decoder:   decoder,
		Navigator: usecase.NewBusNavigator(bus, nil),
		Bus:       bus,
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := usecase.NewRegistry(usecase.StoreDeps{})
	assert.Error(t, err)
}

func TestRegistry_ForTab(t *testing.T) {
	ctx := context.Background()
	registry, err := usecase.NewRegistry(newTestDeps(t, memory.NewStorage(time.Hour)))
	require.NoError(t, err)

	first, err := registry.ForTab(ctx, "tab-a")
	require.NoError(t, err)
	again, err := registry.ForTab(ctx, "tab-a")
	require.NoError(t, err)
	other, err := registry.ForTab(ctx, "tab-b")
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, "tab-a", first.TabID())
	assert.Equal(t, 2, registry.Len())

	_, err = registry.ForTab(ctx, "")
	assert.ErrorIs(t, err, model.ErrTabIDRequired)
}

func TestRegistry_TabsAreIsolated(t *testing.T) {
	ctx := context.Background()
	registry, err := usecase.NewRegistry(newTestDeps(t, memory.NewStorage(time.Hour)))
	require.NoError(t, err)

	admin, err := registry.ForTab(ctx, "tab-a")
	require.NoError(t, err)
	require.NoError(t, admin.SetSession(ctx, testutil.NewTokenFixture().AdminToken()))

	anonymous, err := registry.ForTab(ctx, "tab-b")
	require.NoError(t, err)

	assert.True(t, admin.IsAdmin())
	assert.False(t, anonymous.IsLoggedIn())
}

func TestRegistry_ForgetRehydratesFromStorage(t *testing.T) {
	// Arrange
	ctx := context.Background()
	storage := memory.NewStorage(time.Hour)
	registry, err := usecase.NewRegistry(newTestDeps(t, storage))
	require.NoError(t, err)

	store, err := registry.ForTab(ctx, "tab-a")
	require.NoError(t, err)
	require.NoError(t, store.SetSession(ctx, testutil.NewTokenFixture().AdminToken()))

	// Act
	registry.Forget("tab-a")
	rehydrated, err := registry.ForTab(ctx, "tab-a")

	// Assert
	require.NoError(t, err)
	assert.NotSame(t, store, rehydrated)
	assert.True(t, rehydrated.IsLoggedIn())
	assert.True(t, rehydrated.IsAdmin())
}

func TestRegistry_InitRunsOnce(t *testing.T) {
	// Arrange
	storage := &mockTabStorage{}
	storage.On("GetItem", mock.Anything, "tab-a", model.TokenStorageKey).Return("", false, nil).Once()
	deps := newTestDeps(t, memory.NewStorage(0))
	deps.Storage = storage
	registry, err := usecase.NewRegistry(deps)
	require.NoError(t, err)

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.ForTab(context.Background(), "tab-a")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Assert
	storage.AssertNumberOfCalls(t, "GetItem", 1)
}

func TestRegistry_InitFailureIsRetried(t *testing.T) {
	storage := &mockTabStorage{}
	storage.On("GetItem", mock.Anything, "tab-a", model.TokenStorageKey).Return("", false, assert.AnError).Once()
	storage.On("GetItem", mock.Anything, "tab-a", model.TokenStorageKey).Return("", false, nil).Once()
	deps := newTestDeps(t, memory.NewStorage(0))
	deps.Storage = storage
	registry, err := usecase.NewRegistry(deps)
	require.NoError(t, err)

	_, err = registry.ForTab(context.Background(), "tab-a")
	assert.ErrorIs(t, err, assert.AnError)

	store, err := registry.ForTab(context.Background(), "tab-a")
	require.NoError(t, err)
	assert.False(t, store.IsLoggedIn())
	storage.AssertExpectations(t)
}

func TestRegistry_Sweep(t *testing.T) {
	ctx := context.Background()
	registry, err := usecase.NewRegistry(newTestDeps(t, memory.NewStorage(time.Hour)))
	require.NoError(t, err)

	_, err = registry.ForTab(ctx, "tab-a")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = registry.ForTab(ctx, "tab-b")
	require.NoError(t, err)

	assert.Equal(t, 1, registry.Sweep(10*time.Millisecond))
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, 0, registry.Sweep(time.Hour))
}

func TestRegistry_SweepKeepsAcquiredStores(t *testing.T) {
	// Arrange
	ctx := context.Background()
	registry, err := usecase.NewRegistry(newTestDeps(t, memory.NewStorage(time.Hour)))
	require.NoError(t, err)
	tokens := testutil.NewTokenFixture()

	held, release, err := registry.Acquire(ctx, "tab-a")
	require.NoError(t, err)
	require.NoError(t, held.SetSession(ctx, tokens.AdminToken()))
	time.Sleep(20 * time.Millisecond)

	// Act
	swept := registry.Sweep(10 * time.Millisecond)

	// Assert: the tab keeps one store, so a clear through the held store is
	// what every later request sees
	assert.Equal(t, 0, swept)
	current, err := registry.ForTab(ctx, "tab-a")
	require.NoError(t, err)
	assert.Same(t, held, current)

	require.NoError(t, held.ClearSession(ctx))
	assert.False(t, current.IsLoggedIn())

	release()
	release()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, registry.Sweep(10*time.Millisecond))
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_AcquireRequiresTabID(t *testing.T) {
	registry, err := usecase.NewRegistry(newTestDeps(t, memory.NewStorage(time.Hour)))
	require.NoError(t, err)

	_, release, err := registry.Acquire(context.Background(), "")

	assert.ErrorIs(t, err, model.ErrTabIDRequired)
	assert.Nil(t, release)
}

func TestRegistry_RunJanitorStopsWithContext(t *testing.T) {
	registry, err := usecase.NewRegistry(newTestDeps(t, memory.NewStorage(time.Hour)))
	require.NoError(t, err)
	_, err = registry.ForTab(context.Background(), "tab-a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		registry.RunJanitor(ctx, 5*time.Millisecond, time.Nanosecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return registry.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestBusNavigator_Navigate(t *testing.T) {
	bus := eventbus.NewEventBus(logger.NewNopLogger())
	received := make(chan model.NavigationEvent, 1)
	bus.Subscribe(eventbus.EventTypeNavigationRequested, func(ctx context.Context, event eventbus.Event) error {
		received <- event.Data().(model.NavigationEvent)
		return nil
	})

	usecase.NewBusNavigator(bus, nil).Navigate(context.Background(), "tab-a", "/")

	select {
	case ev := <-received:
		assert.Equal(t, model.NavigationEvent{TabID: "tab-a", Path: "/"}, ev)
	case <-time.After(time.Second):
		t.Fatal("navigation event not published")
	}
}
