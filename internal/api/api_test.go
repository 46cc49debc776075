package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/database/mock"
	"github.com/jon4hz/lifetrack/internal/engine"
	"github.com/stretchr/testify/suite"
)

type APITestSuite struct {
	suite.Suite
	engine  *engine.Engine
	handler http.Handler
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Listen:              "127.0.0.1:0",
		ServerURL:           "http://localhost:3003",
		SessionKey:          "test-secret-test-secret-test-sec",
		SessionMaxAge:       3600,
		TimezoneOffsetHours: 4,
		Cache:               &config.CacheConfig{Type: config.CacheTypeMemory, TTL: 60},
	}
	db, _ := mock.NewClient()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.FixedZone("UTC+4", 4*60*60))
	e, err := engine.New(cfg, db, engine.WithClock(clock.Static{T: now}))
	s.Require().NoError(err)
	s.engine = e

	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "moderator"} {
		_, err := e.Signup(ctx, name, "password1", "password1")
		s.Require().NoError(err)
	}
	s.Require().NoError(e.SetRole(ctx, "moderator", database.RoleAdmin))

	server, err := New(cfg, e, false)
	s.Require().NoError(err)
	s.handler = server.Handler()
}

func (s *APITestSuite) TearDownTest() {
	_ = s.engine.Close()
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

// do sends a JSON request with the given cookies and decodes the JSON response.
func (s *APITestSuite) do(method, path string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (s *APITestSuite) login(username string) []*http.Cookie {
	w, resp := s.do(http.MethodPost, "/login", map[string]string{"username": username, "password": "password1"}, nil)
	s.Require().Equal(http.StatusOK, w.Code, resp)
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)
	return cookies
}

func (s *APITestSuite) TestRequiresLogin() {
	w, resp := s.do(http.MethodGet, "/api/home", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(false, resp["success"])
}

func (s *APITestSuite) TestLoginFailure() {
	w, resp := s.do(http.MethodPost, "/login", map[string]string{"username": "alice", "password": "nope12345"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("invalid credentials", resp["error"])
}

func (s *APITestSuite) TestSignupAndCheckUsername() {
	w, _ := s.do(http.MethodGet, "/check_username?username=carol", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w, resp := s.do(http.MethodPost, "/signup", map[string]string{
		"username": "carol", "password": "password1", "repeat_password": "password1",
	}, nil)
	s.Equal(http.StatusCreated, w.Code, resp)

	_, resp = s.do(http.MethodGet, "/check_username?username=CAROL", nil, nil)
	s.Equal(false, resp["available"])

	w, resp = s.do(http.MethodPost, "/signup", map[string]string{
		"username": "dave", "password": "short", "repeat_password": "short",
	}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(false, resp["success"])
}

func (s *APITestSuite) TestModerationFlow() {
	alice := s.login("alice")
	bob := s.login("bob")
	mod := s.login("moderator")

	w, resp := s.do(http.MethodPost, "/api/foods", map[string]any{
		"name": "Chicken", "calories": 165, "protein": 31, "carbs": 0, "fat": 3.6, "public": true,
	}, alice)
	s.Require().Equal(http.StatusCreated, w.Code, resp)
	s.Equal("Submitted for approval", resp["message"])

	w, _ = s.do(http.MethodGet, "/api/foods/Chicken", nil, bob)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/admin/api/dashboard", nil, bob)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp = s.do(http.MethodGet, "/admin/api/dashboard", nil, mod)
	s.Require().Equal(http.StatusOK, w.Code)
	dash := resp["dashboard"].(map[string]any)
	s.Len(dash["foods"], 1)
	s.Len(dash["users"], 3)

	w, _ = s.do(http.MethodPost, "/admin/api/foods/chicken/approve", nil, mod)
	s.Require().Equal(http.StatusOK, w.Code)

	w, resp = s.do(http.MethodGet, "/api/foods", nil, bob)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(resp["foods"], 1)

	w, resp = s.do(http.MethodPost, "/api/entries/foods", map[string]any{
		"foods": []map[string]any{{"name": "Chicken", "amount": 150}},
	}, bob)
	s.Require().Equal(http.StatusCreated, w.Code, resp)

	w, resp = s.do(http.MethodGet, "/api/macros/2024-03-10", nil, bob)
	s.Require().Equal(http.StatusOK, w.Code)
	s.InDelta(247.5, resp["calories"], 1e-9)
	s.InDelta(46.5, resp["protein"], 1e-9)

	w, _ = s.do(http.MethodDelete, "/api/foods/Chicken", nil, bob)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp = s.do(http.MethodGet, "/admin/api/history?limit=10", nil, mod)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(resp["history"], 3)

	w, _ = s.do(http.MethodGet, "/admin/api/history?limit=abc", nil, mod)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestTemplates() {
	alice := s.login("alice")

	w, resp := s.do(http.MethodPost, "/api/foods", map[string]any{"name": "Oats", "calories": 389, "protein": 17, "carbs": 66, "fat": 7}, alice)
	s.Require().Equal(http.StatusCreated, w.Code, resp)
	w, resp = s.do(http.MethodPost, "/api/workouts", map[string]any{"name": "Running"}, alice)
	s.Require().Equal(http.StatusCreated, w.Code, resp)

	w, resp = s.do(http.MethodPost, "/api/templates", map[string]any{
		"name":            "Breakfast",
		"foods":           []any{"Oats", map[string]any{"name": "Oats", "amount": 50}},
		"workouts":        []any{"Running"},
		"includeWorkouts": false,
	}, alice)
	s.Require().Equal(http.StatusCreated, w.Code, resp)
	tmpl := resp["template"].(map[string]any)
	s.Len(tmpl["foods"], 2)
	s.Empty(tmpl["workouts"])

	w, resp = s.do(http.MethodGet, "/api/templates", nil, alice)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(resp["templates"], 1)

	w, resp = s.do(http.MethodPost, "/api/templates/Breakfast/use", nil, alice)
	s.Require().Equal(http.StatusCreated, w.Code, resp)
	s.Len(resp["entries"], 1)
	s.InDelta(2, resp["foods"], 1e-9)

	w, resp = s.do(http.MethodPut, "/api/templates/Breakfast", map[string]any{"foods": []any{}}, alice)
	s.Require().Equal(http.StatusOK, w.Code, resp)

	w, resp = s.do(http.MethodPost, "/api/templates/Breakfast/use", nil, alice)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(engine.ErrNothingToLog.Error(), resp["error"])

	w, _ = s.do(http.MethodDelete, "/api/templates/Breakfast", nil, alice)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/templates/Breakfast", nil, alice)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestSuspendedSessionIsDropped() {
	bob := s.login("bob")
	mod := s.login("moderator")

	w, _ := s.do(http.MethodPost, "/admin/api/users/bob/timeout", nil, mod)
	s.Require().Equal(http.StatusOK, w.Code)

	w, resp := s.do(http.MethodGet, "/api/me", nil, bob)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(resp["error"], "suspended")

	w, resp = s.do(http.MethodGet, "/admin/api/dashboard", nil, mod)
	s.Require().Equal(http.StatusOK, w.Code)
	for _, u := range resp["dashboard"].(map[string]any)["users"].([]any) {
		user := u.(map[string]any)
		if user["username"] == "bob" {
			s.Equal(true, user["suspended"])
			s.NotEmpty(user["suspended_for"])
		}
	}
}

func (s *APITestSuite) TestSchedulerJobs() {
	mod := s.login("moderator")
	w, resp := s.do(http.MethodGet, "/admin/api/scheduler/jobs", nil, mod)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(resp["jobs"])

	w, _ = s.do(http.MethodPost, "/admin/api/scheduler/jobs/unknown/run", nil, mod)
	s.Equal(http.StatusBadRequest, w.Code)
}
