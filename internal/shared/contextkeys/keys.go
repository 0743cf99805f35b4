package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "melodiapp-web context key " + string(c)
}

const (
	// RequestIDKey is the key for the per-request id set by the requestid middleware.
	RequestIDKey = contextKey("requestID")

	// TabIDKey is the key for the browser tab identifier.
	TabIDKey = contextKey("tabID")

	// RouteKey is the key for the name of the route being navigated to.
	RouteKey = contextKey("route")

	ComponentKey = contextKey("component")
	OperationKey = contextKey("operation")
)
