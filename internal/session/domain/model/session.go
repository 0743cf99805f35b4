package model

// TokenStorageKey is the tab storage key holding the raw token.
const TokenStorageKey = "token"

// RoleAdmin is the role value that grants admin views.
const RoleAdmin = "admin"

// Session is the authentication state of one browser tab.
//
// Only Token and Role are stored. IsLoggedIn and IsAdmin are derived on every
// call so they can never disagree with the stored fields.
type Session struct {
	Token string `json:"-"`
	Role  string `json:"role"`
}

// IsLoggedIn reports whether a token is held.
func (s Session) IsLoggedIn() bool {
	return s.Token != ""
}

// IsAdmin reports whether the decoded role is admin.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// SessionState is the read-only view of a tab session handed to callers
// outside the store (HTTP responses, websocket feed, events).
type SessionState struct {
	TabID      string `json:"tabId"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	IsAdmin    bool   `json:"isAdmin"`
	Role       string `json:"role"`
}

// StateOf builds the SessionState of s for the given tab.
func StateOf(tabID string, s Session) SessionState {
	return SessionState{
		TabID:      tabID,
		IsLoggedIn: s.IsLoggedIn(),
		IsAdmin:    s.IsAdmin(),
		Role:       s.Role,
	}
}

// SessionChangedEvent is the payload of a session.changed event.
type SessionChangedEvent struct {
	State SessionState `json:"state"`
}

// NavigationEvent is the payload of navigation.requested and navigation.denied events.
type NavigationEvent struct {
	TabID  string `json:"tabId"`
	Path   string `json:"path"`
	Route  string `json:"route,omitempty"`
	Reason string `json:"reason,omitempty"`
}
