package http_test

import (
	"net/http"
	"testing"

	sessionhttp "melodiapp-web/internal/session/adapter/http"
	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type GuardMiddlewareTestSuite struct {
	suite.Suite
	h *harness
}

func (suite *GuardMiddlewareTestSuite) SetupTest() {
	suite.h = newHarness(suite.T(), nil, nil)
}

func (suite *GuardMiddlewareTestSuite) TestProtectedRoute_LoggedOut_RedirectsToLogin() {
	// Act
	resp := suite.h.do(suite.T(), http.MethodGet, "/songs", "tab-1", "")

	// Assert
	assert.Equal(suite.T(), http.StatusFound, resp.StatusCode)
	assert.Equal(suite.T(), "/", resp.Header.Get("Location"))

	denied := suite.h.eventsOf(eventbus.EventTypeNavigationDenied)
	require.Len(suite.T(), denied, 1)
	assert.Equal(suite.T(), model.NavigationEvent{
		TabID:  "tab-1",
		Path:   "/",
		Route:  "songs",
		Reason: "auth_required",
	}, denied[0].Data())
}

func (suite *GuardMiddlewareTestSuite) TestProtectedRoute_LoggedIn_Proceeds() {
	// Arrange
	suite.h.login(suite.T(), "tab-1", suite.h.tokens.MemberToken())

	// Act
	resp := suite.h.do(suite.T(), http.MethodGet, "/users", "tab-1", "")

	// Assert
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var view sessionhttp.View
	decodeJSON(suite.T(), resp, &view)
	assert.Equal(suite.T(), "users", view.Route)
	assert.Equal(suite.T(), "UsersView", view.Name)
	assert.True(suite.T(), view.Session.IsLoggedIn)
	assert.False(suite.T(), view.Session.IsAdmin)
	assert.Empty(suite.T(), suite.h.eventsOf(eventbus.EventTypeNavigationDenied))
}

func (suite *GuardMiddlewareTestSuite) TestLoginRoute_LoggedIn_RedirectsToLanding() {
	suite.h.login(suite.T(), "tab-1", suite.h.tokens.AdminToken())

	resp := suite.h.do(suite.T(), http.MethodGet, "/", "tab-1", "")

	assert.Equal(suite.T(), http.StatusFound, resp.StatusCode)
	assert.Equal(suite.T(), "/programations", resp.Header.Get("Location"))
	assert.Empty(suite.T(), suite.h.eventsOf(eventbus.EventTypeNavigationDenied))
}

func (suite *GuardMiddlewareTestSuite) TestLoginRoute_LoggedOut_RendersLogin() {
	resp := suite.h.do(suite.T(), http.MethodGet, "/", "tab-1", "")

	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var view sessionhttp.View
	decodeJSON(suite.T(), resp, &view)
	assert.Equal(suite.T(), "AuthView", view.Name)
	assert.False(suite.T(), view.Session.IsLoggedIn)
}

func (suite *GuardMiddlewareTestSuite) TestPublicRoute_PassesParams() {
	resp := suite.h.do(suite.T(), http.MethodGet, "/programation/17", "tab-1", "")

	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	var view sessionhttp.View
	decodeJSON(suite.T(), resp, &view)
	assert.Equal(suite.T(), "ProgramationView", view.Name)
	assert.Equal(suite.T(), "/programation/17", view.Path)
	assert.Equal(suite.T(), map[string]string{"id": "17"}, view.Params)
}

func (suite *GuardMiddlewareTestSuite) TestTabsDoNotShareSessions() {
	suite.h.login(suite.T(), "tab-1", suite.h.tokens.AdminToken())

	resp := suite.h.do(suite.T(), http.MethodGet, "/songs", "tab-2", "")

	assert.Equal(suite.T(), http.StatusFound, resp.StatusCode)
	assert.Equal(suite.T(), "/", resp.Header.Get("Location"))
}

func (suite *GuardMiddlewareTestSuite) TestLogoutThenProtectedRoute() {
	suite.h.login(suite.T(), "tab-1", suite.h.tokens.AdminToken())
	resp := suite.h.do(suite.T(), http.MethodDelete, "/api/session", "tab-1", "")
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	resp = suite.h.do(suite.T(), http.MethodGet, "/songs", "tab-1", "")

	assert.Equal(suite.T(), http.StatusFound, resp.StatusCode)
}

func TestGuardMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(GuardMiddlewareTestSuite))
}
