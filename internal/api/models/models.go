package models

import (
	"time"

	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/engine"
)

// User is the logged in user as stored in the request context.
type User struct {
	Username        string        `json:"username"`
	Role            database.Role `json:"role"`
	IsAdmin         bool          `json:"is_admin"`
	NeedsOnboarding bool          `json:"needs_onboarding"`
	IsBirthday      bool          `json:"is_birthday"`
}

// AdminUser is a user row of the moderation dashboard.
type AdminUser struct {
	Username       string        `json:"username"`
	Role           database.Role `json:"role"`
	SuspendedUntil *string       `json:"suspended_until"`
	Suspended      bool          `json:"suspended"`
	// SuspendedFor is a human readable rest of the suspension, e.g. "6 days from now".
	SuspendedFor string `json:"suspended_for,omitempty"`
}

// Dashboard is the moderation overview.
type Dashboard struct {
	Foods    []database.Food    `json:"foods"`
	Workouts []database.Workout `json:"workouts"`
	Entries  []database.Entry   `json:"entries"`
	Users    []AdminUser        `json:"users"`
}

// HistoryItem is an audit trail event.
type HistoryItem struct {
	ID        string                    `json:"id"`
	Type      database.HistoryEventType `json:"type"`
	Kind      database.Kind             `json:"kind"`
	Subject   string                    `json:"subject"`
	Actor     string                    `json:"actor"`
	CreatedAt time.Time                 `json:"created_at"`
	Ago       string                    `json:"ago"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username       string `json:"username" form:"username"`
	Password       string `json:"password" form:"password"`
	RepeatPassword string `json:"repeat_password" form:"repeat_password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LogFoodsRequest is the body of POST /api/entries/foods.
type LogFoodsRequest struct {
	Foods []engine.FoodSelection `json:"foods"`
}

// LogWorkoutsRequest is the body of POST /api/entries/workouts.
type LogWorkoutsRequest struct {
	Workouts []engine.WorkoutSelection `json:"workouts"`
}

// EditDateRequest is the body of PATCH /api/entries/:id/date.
type EditDateRequest struct {
	Date string `json:"date" form:"date"`
}

// TemplateRequest is the body of POST /api/templates. Items are either
// names or snapshot objects. The include flags default to true.
type TemplateRequest struct {
	Name            string                     `json:"name"`
	Foods           []database.TemplateFood    `json:"foods"`
	Workouts        []database.TemplateWorkout `json:"workouts"`
	IncludeFoods    *bool                      `json:"includeFoods"`
	IncludeWorkouts *bool                      `json:"includeWorkouts"`
}

// TemplateUpdateRequest is the body of PUT /api/templates/:name.
// Lists that are absent are left untouched.
type TemplateUpdateRequest struct {
	Foods    *[]database.TemplateFood    `json:"foods"`
	Workouts *[]database.TemplateWorkout `json:"workouts"`
}
