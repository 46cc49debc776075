package api

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lifetrack/internal/api/auth"
	"github.com/jon4hz/lifetrack/internal/api/handler"
	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/engine"
)

const sessionName = "lifetrack_session"

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
}

// New creates the HTTP server with all routes registered.
func New(cfg *config.Config, e *engine.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if debug {
		ginEngine.Use(gin.Logger())
	}
	ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		engine:    e,
	}
	s.setupSession()
	s.setupRoutes()
	s.setupAdminRoutes()
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine)

	s.ginEngine.POST("/signup", h.Signup)
	s.ginEngine.POST("/login", h.Login)
	s.ginEngine.GET("/logout", h.Logout)
	s.ginEngine.GET("/check_username", h.CheckUsername)

	api := s.ginEngine.Group("/api")
	api.Use(auth.RequireAuth(s.engine))

	api.GET("/me", h.Me)
	api.GET("/home", h.Home)

	api.GET("/foods", h.ListFoods)
	api.POST("/foods", h.SubmitFood)
	api.GET("/foods/:name", h.GetFood)
	api.DELETE("/foods/:name", h.DeleteItem(database.KindFood))

	api.GET("/workouts", h.ListWorkouts)
	api.POST("/workouts", h.SubmitWorkout)
	api.GET("/workouts/:name", h.GetWorkout)
	api.DELETE("/workouts/:name", h.DeleteItem(database.KindWorkout))

	api.POST("/entries/foods", h.LogFoods)
	api.POST("/entries/workouts", h.LogWorkouts)
	api.DELETE("/entries/:id", h.DeleteEntry)
	api.PATCH("/entries/:id/date", h.EditEntryDate)
	api.PATCH("/entries/:id/privacy", h.ToggleEntryPrivacy)

	api.GET("/macros/:date", h.DateMacros)

	api.GET("/profile", h.Profile)
	api.PUT("/profile", h.UpdateProfile)
	api.POST("/onboarding", h.Onboarding)

	api.GET("/templates", h.ListTemplates)
	api.POST("/templates", h.CreateTemplate)
	api.GET("/templates/:name", h.TemplateDetails)
	api.PUT("/templates/:name", h.UpdateTemplate)
	api.DELETE("/templates/:name", h.DeleteTemplate)
	api.POST("/templates/:name/use", h.UseTemplate)
}

func (s *Server) setupAdminRoutes() {
	h := handler.NewAdmin(s.engine)

	admin := s.ginEngine.Group("/admin/api")
	admin.Use(auth.RequireAuth(s.engine), auth.RequireAdmin())

	admin.GET("/dashboard", h.Dashboard)

	admin.POST("/foods/:name/approve", h.ApproveItem(database.KindFood))
	admin.POST("/foods/:name/reject", h.RejectItem(database.KindFood))
	admin.POST("/workouts/:name/approve", h.ApproveItem(database.KindWorkout))
	admin.POST("/workouts/:name/reject", h.RejectItem(database.KindWorkout))

	admin.POST("/entries/:id/approve", h.ApproveEntry)
	admin.POST("/entries/:id/reject", h.RejectEntry)

	admin.POST("/users/:username/ban", h.BanUser)
	admin.POST("/users/:username/timeout", h.TimeoutUser)
	admin.POST("/users/:username/unban", h.UnbanUser)

	admin.GET("/history", h.GetHistory)

	admin.GET("/scheduler/jobs", h.GetSchedulerJobs)
	admin.POST("/scheduler/jobs/:id/run", h.RunSchedulerJob)
	admin.POST("/scheduler/jobs/:id/enable", h.SetSchedulerJobEnabled(true))
	admin.POST("/scheduler/jobs/:id/disable", h.SetSchedulerJobEnabled(false))
	admin.GET("/scheduler/cache/stats", h.GetCacheStats)
	admin.POST("/scheduler/cache/clear", h.ClearCache)
}

// Handler exposes the router, e.g. for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run listens on the configured address.
func (s *Server) Run() error {
	return s.ginEngine.Run(s.cfg.Listen)
}
