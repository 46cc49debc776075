package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lifetrack/internal/api/auth"
	"github.com/jon4hz/lifetrack/internal/api/models"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/engine"
	"github.com/jon4hz/lifetrack/internal/nutrition"
	"github.com/jon4hz/lifetrack/internal/policy"
	"github.com/samber/lo"
)

type Handler struct {
	engine *engine.Engine
}

func New(eng *engine.Engine) *Handler {
	return &Handler{
		engine: eng,
	}
}

func actor(c *gin.Context) policy.Actor {
	return c.MustGet(auth.ContextActorKey).(policy.Actor)
}

// Signup registers a new account.
func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if _, err := h.engine.Signup(c.Request.Context(), req.Username, req.Password, req.RepeatPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registered successfully. Please log in.",
	})
}

// Login checks the credentials and starts a session.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	user, err := h.engine.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.Login(c, user.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    models.ToUser(user, h.engine.IsBirthday(user)),
	})
}

// Logout ends the session.
func (h *Handler) Logout(c *gin.Context) {
	if err := auth.Logout(c); err != nil {
		log.Error("Failed to clear session", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckUsername reports whether a username is still free.
func (h *Handler) CheckUsername(c *gin.Context) {
	available, reason, err := h.engine.UsernameAvailable(c.Request.Context(), c.Query("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"available": available}
	if reason != "" {
		resp["error"] = reason
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the logged in user.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    c.MustGet(auth.ContextUserKey).(*models.User),
	})
}

// Home returns the visible entries and the user's statistics.
func (h *Handler) Home(c *gin.Context) {
	home, err := h.engine.Home(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": home.Entries,
		"stats":   home.Stats,
	})
}

func (h *Handler) ListFoods(c *gin.Context) {
	foods, err := h.engine.ListFoods(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "foods": foods})
}

func (h *Handler) GetFood(c *gin.Context) {
	food, err := h.engine.GetFood(c.Request.Context(), actor(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "food": food})
}

func (h *Handler) SubmitFood(c *gin.Context) {
	var req engine.FoodSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	food, err := h.engine.SubmitFood(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": submittedMessage(food.CatalogItem),
		"food":    food,
	})
}

func (h *Handler) ListWorkouts(c *gin.Context) {
	workouts, err := h.engine.ListWorkouts(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "workouts": workouts})
}

func (h *Handler) GetWorkout(c *gin.Context) {
	workout, err := h.engine.GetWorkout(c.Request.Context(), actor(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "workout": workout})
}

func (h *Handler) SubmitWorkout(c *gin.Context) {
	var req engine.WorkoutSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	workout, err := h.engine.SubmitWorkout(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": submittedMessage(workout.CatalogItem),
		"workout": workout,
	})
}

func submittedMessage(item database.CatalogItem) string {
	if item.PendingApproval {
		return "Submitted for approval"
	}
	return "Saved"
}

// DeleteItem returns a handler deleting a food or workout.
func (h *Handler) DeleteItem(kind database.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.engine.DeleteItem(c.Request.Context(), actor(c), kind, c.Param("name")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted"})
	}
}

func (h *Handler) LogFoods(c *gin.Context) {
	var req models.LogFoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	entries, err := h.engine.LogFoods(c.Request.Context(), actor(c), req.Foods)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "entries": entries})
}

func (h *Handler) LogWorkouts(c *gin.Context) {
	var req models.LogWorkoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	entries, err := h.engine.LogWorkouts(c.Request.Context(), actor(c), req.Workouts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "entries": entries})
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	if err := h.engine.DeleteEntry(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Log deleted"})
}

func (h *Handler) EditEntryDate(c *gin.Context) {
	var req models.EditDateRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if err := h.engine.EditEntryDate(c.Request.Context(), actor(c), c.Param("id"), req.Date); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "date": req.Date})
}

func (h *Handler) ToggleEntryPrivacy(c *gin.Context) {
	privacy, err := h.engine.ToggleEntryPrivacy(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "privacy": privacy})
}

func (h *Handler) DateMacros(c *gin.Context) {
	totals, err := h.engine.DateMacros(c.Request.Context(), actor(c), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) Profile(c *gin.Context) {
	view, err := h.engine.Profile(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"profile":         view,
		"activity_levels": nutrition.ActivityLevels,
	})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req engine.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	profile, err := h.engine.UpdateProfile(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func (h *Handler) Onboarding(c *gin.Context) {
	var req nutrition.Onboarding
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	profile, err := h.engine.Onboard(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.engine.ListTemplates(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "templates": templates})
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req models.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	in := engine.TemplateInput{Name: req.Name}
	if lo.FromPtrOr(req.IncludeFoods, true) {
		in.Foods = req.Foods
	}
	if lo.FromPtrOr(req.IncludeWorkouts, true) {
		in.Workouts = req.Workouts
	}
	tmpl, err := h.engine.CreateTemplate(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "template": tmpl})
}

func (h *Handler) TemplateDetails(c *gin.Context) {
	tmpl, err := h.engine.TemplateDetails(c.Request.Context(), actor(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tmpl})
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req models.TemplateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	tmpl, err := h.engine.UpdateTemplate(c.Request.Context(), actor(c), c.Param("name"), engine.TemplateUpdate{
		Foods:    req.Foods,
		Workouts: req.Workouts,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tmpl})
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.engine.DeleteTemplate(c.Request.Context(), actor(c), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template deleted"})
}

func (h *Handler) UseTemplate(c *gin.Context) {
	res, err := h.engine.UseTemplate(c.Request.Context(), actor(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"entries":  res.Entries,
		"foods":    res.Foods,
		"workouts": res.Workouts,
	})
}
