package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hugh/go-contacts/internal/api"
	"github.com/hugh/go-contacts/internal/api/dto"
	"github.com/hugh/go-contacts/internal/api/middleware"
	"github.com/hugh/go-contacts/internal/auth"
	"github.com/hugh/go-contacts/internal/contacts"
	"github.com/hugh/go-contacts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, cfg api.RouterConfig) (*api.Router, *testutil.TestSetup) {
	t.Helper()

	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)
	logger := testutil.DiscardLogger()

	cfg.DB = tc.DB
	cfg.Logger = logger
	cfg.JWTService = tc.JWTService
	cfg.AuthService = auth.NewService(tc.DB, tc.JWTService, testutil.NewTestHasher(), nil, logger)
	cfg.Contacts = contacts.NewRepository(tc.DB, contacts.DefaultBirthdayOptions())
	if cfg.Avatars == nil {
		cfg.Avatars = &testutil.FakeAvatarStore{}
	}

	return api.NewRouter(cfg), tc
}

func TestRouter_RegisterVerifyLogin(t *testing.T) {
	router, _ := newTestRouter(t, api.RouterConfig{})

	creds := map[string]string{"email": "flow@example.com", "password": "s3cret-pass"}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.UnauthenticatedRequest(t, "POST", "/register", creds))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var user dto.UserResponse
	testutil.ParseJSONResponse(t, rr, &user)

	login := map[string]string{"username": creds["email"], "password": creds["password"]}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.FormRequest(t, "/login", login))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/verify_email?token="+user.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.FormRequest(t, "/login", login))
	require.Equal(t, http.StatusOK, rr.Code)
	var token dto.TokenResponse
	testutil.ParseJSONResponse(t, rr, &token)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", "/me", nil, token.AccessToken))
	require.Equal(t, http.StatusOK, rr.Code)
	var me dto.UserResponse
	testutil.ParseJSONResponse(t, rr, &me)
	assert.Equal(t, user.ID, me.ID)
	assert.True(t, me.IsVerified)
}

func TestRouter_TrailingSlashes(t *testing.T) {
	router, tc := newTestRouter(t, api.RouterConfig{})
	testutil.CreateTestContact(t, tc.DB, tc.User.ID, "Ada", "Lovelace", "ada@example.com", "1815-12-10")

	paths := []string{
		"/contacts",
		"/contacts/",
		"/search?query=ada",
		"/search/?query=ada",
		"/birthdays",
		"/birthdays/",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", path, nil, tc.Token))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}

	t.Run("create with trailing slash", func(t *testing.T) {
		body := map[string]string{
			"first_name": "Alan",
			"last_name":  "Turing",
			"email":      "alan@example.com",
			"phone":      "+441234567890",
			"birthday":   "1912-06-23",
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "POST", "/contacts/", body, tc.Token))
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, api.RouterConfig{})

	routes := []struct{ method, path string }{
		{"GET", "/me"},
		{"PATCH", "/avatar"},
		{"GET", "/contacts/"},
		{"POST", "/contacts/"},
		{"GET", "/search/?query=a"},
		{"GET", "/birthdays/"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, testutil.UnauthenticatedRequest(t, rt.method, rt.path, nil))

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			var resp dto.ErrorResponse
			testutil.ParseJSONResponse(t, rr, &resp)
			assert.Equal(t, "Could not validate credentials", resp.Error)
		})
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, api.RouterConfig{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_MeRateLimit(t *testing.T) {
	limiter := middleware.NewMemoryLimiter(2, time.Minute)
	defer limiter.Stop()

	router, tc := newTestRouter(t, api.RouterConfig{MeRateLimiter: limiter})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", "/me", nil, tc.Token))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", "/me", nil, tc.Token))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// other routes are not limited per user
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.AuthenticatedRequest(t, "GET", "/contacts/", nil, tc.Token))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_CORS(t *testing.T) {
	router, _ := newTestRouter(t, api.RouterConfig{})

	req := httptest.NewRequest("OPTIONS", "/contacts/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
