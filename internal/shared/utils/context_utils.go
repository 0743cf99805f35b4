package utils

import (
	"context"
	"errors"

	"melodiapp-web/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrTabIDNotFound      = errors.New("tabID not found in context")
	ErrTabIDNotString     = errors.New("tabID in context is not a string")
	ErrRequestIDNotFound  = errors.New("requestID not found in context")
	ErrRequestIDNotString = errors.New("requestID in context is not a string")
	ErrRouteNotFound      = errors.New("route not found in context")
	ErrRouteNotString     = errors.New("route in context is not a string")
)

// GetTabIDFromContext retrieves the browser tab id from the context.
// It returns an error if the tab id is not found or is not a string.
func GetTabIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.TabIDKey, ErrTabIDNotFound, ErrTabIDNotString)
}

// GetRequestIDFromContext retrieves the request ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RequestIDKey, ErrRequestIDNotFound, ErrRequestIDNotString)
}

// GetRouteFromContext retrieves the destination route name from the context.
func GetRouteFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.RouteKey, ErrRouteNotFound, ErrRouteNotString)
}

func stringValue(ctx context.Context, key interface{}, notFound, notString error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", notFound
	}
	s, ok := val.(string)
	if !ok {
		return "", notString
	}
	return s, nil
}

// Context builder functions

// WithTabID returns a copy of ctx carrying the tab id.
func WithTabID(ctx context.Context, tabID string) context.Context {
	return context.WithValue(ctx, contextkeys.TabIDKey, tabID)
}

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// WithRoute returns a copy of ctx carrying the destination route name.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, contextkeys.RouteKey, route)
}

func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}
