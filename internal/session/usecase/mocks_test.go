package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) Navigate(ctx context.Context, tabID, path string) {
	m.Called(ctx, tabID, path)
}

type mockTabStorage struct {
	mock.Mock
}

func (m *mockTabStorage) GetItem(ctx context.Context, tabID, key string) (string, bool, error) {
	args := m.Called(ctx, tabID, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockTabStorage) SetItem(ctx context.Context, tabID, key, value string) error {
	args := m.Called(ctx, tabID, key, value)
	return args.Error(0)
}

func (m *mockTabStorage) RemoveItem(ctx context.Context, tabID, key string) error {
	args := m.Called(ctx, tabID, key)
	return args.Error(0)
}

func (m *mockTabStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
