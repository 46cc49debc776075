package database

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what a history event or a catalog operation is about.
type Kind string

const (
	KindFood    Kind = "food"
	KindWorkout Kind = "workout"
	KindEntry   Kind = "entry"
	KindUser    Kind = "user"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// BannedUntil is the sentinel stored in suspended_until for permanent bans.
const BannedUntil = "9999-12-31"

// User represents an account.
// The username is the identity key and is compared case-sensitively.
type User struct {
	Username       string   `json:"username"`
	PasswordHash   string   `json:"password"`
	Role           Role     `json:"role"`
	SuspendedUntil *string  `json:"suspended_until"`
	Profile        *Profile `json:"profile,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Number is a float that also accepts numeric strings when decoding.
// Older profile documents stored form values verbatim.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

// Float returns n as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// Profile holds the body metrics and nutrition goals of a user.
type Profile struct {
	Height             Number `json:"height,omitempty"`
	Weight             Number `json:"weight,omitempty"`
	Age                Number `json:"age,omitempty"`
	Gender             string `json:"gender,omitempty"`
	Goal               string `json:"goal,omitempty"`
	ActivityLevel      Number `json:"activity_level,omitempty"`
	CalorieGoal        Number `json:"calorie_goal,omitempty"`
	ProteinGoal        Number `json:"protein_goal,omitempty"`
	CarbGoal           Number `json:"carb_goal,omitempty"`
	FatGoal            Number `json:"fat_goal,omitempty"`
	TDEE               Number `json:"tdee,omitempty"`
	BMR                Number `json:"bmr,omitempty"`
	Birthday           string `json:"birthday,omitempty"`
	OnboardingComplete bool   `json:"onboarding_complete,omitempty"`
}

// CatalogItem is the part shared by foods and workouts.
type CatalogItem struct {
	Name            string   `json:"name"`
	Creator         string   `json:"creator"`
	Public          bool     `json:"public"`
	PendingApproval bool     `json:"pending_approval"`
	Categories      []string `json:"categories"`
}

func (c CatalogItem) GetName() string    { return c.Name }
func (c CatalogItem) GetCreator() string { return c.Creator }
func (c CatalogItem) IsPublic() bool     { return c.Public }
func (c CatalogItem) IsPending() bool    { return c.PendingApproval }

// Meta gives mutable access to the shared catalog fields.
func (c *CatalogItem) Meta() *CatalogItem { return c }

// Nutrition values are per 100 units of the item.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Food is a catalog food definition.
type Food struct {
	CatalogItem
	Nutrition
}

// UnmarshalJSON treats a missing "public" key as public, matching older documents.
func (f *Food) UnmarshalJSON(data []byte) error {
	type food Food
	aux := struct {
		*food
		Public *bool `json:"public"`
	}{food: (*food)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Public = aux.Public == nil || *aux.Public
	return nil
}

// Snapshot copies the food into a log instance of the given amount.
func (f Food) Snapshot(amount float64) FoodSnapshot {
	return FoodSnapshot{
		Name:       f.Name,
		Creator:    f.Creator,
		Categories: append([]string(nil), f.Categories...),
		Nutrition:  f.Nutrition,
		Amount:     amount,
	}
}

// Workout is a catalog workout definition.
type Workout struct {
	CatalogItem
}

// UnmarshalJSON treats a missing "public" key as public, matching older documents.
func (w *Workout) UnmarshalJSON(data []byte) error {
	type workout Workout
	aux := struct {
		*workout
		Public *bool `json:"public"`
	}{workout: (*workout)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.Public = aux.Public == nil || *aux.Public
	return nil
}

// Snapshot copies the workout into a log instance without any measurements.
func (w Workout) Snapshot() WorkoutSnapshot {
	return WorkoutSnapshot{
		Name:       w.Name,
		Creator:    w.Creator,
		Categories: append([]string(nil), w.Categories...),
	}
}

// FoodSnapshot is a food as it was when it was logged.
type FoodSnapshot struct {
	Name       string   `json:"name"`
	Creator    string   `json:"creator,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Nutrition
	Amount float64 `json:"amount"`
}

func (s FoodSnapshot) GetName() string { return s.Name }

// WorkoutSnapshot is a workout as it was when it was logged, with its measurements.
type WorkoutSnapshot struct {
	Name       string   `json:"name"`
	Creator    string   `json:"creator,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Sets       int      `json:"sets,omitempty"`
	Reps       int      `json:"reps,omitempty"`
	Weight     float64  `json:"weight,omitempty"`
	Duration   float64  `json:"duration,omitempty"`
	Speed      float64  `json:"speed,omitempty"`
}

func (s WorkoutSnapshot) GetName() string { return s.Name }

type Privacy string

const (
	PrivacyPublic  Privacy = "Public"
	PrivacyPrivate Privacy = "Private"
)

// Entry is a dated log record of one user.
type Entry struct {
	ID              string            `json:"id"`
	User            string            `json:"user"`
	Date            string            `json:"date"`
	Foods           []FoodSnapshot    `json:"foods"`
	Workouts        []WorkoutSnapshot `json:"workouts"`
	Privacy         Privacy           `json:"privacy"`
	PendingApproval bool              `json:"pending_approval,omitempty"`
}

func (e Entry) GetName() string    { return e.ID }
func (e Entry) GetCreator() string { return e.User }
func (e Entry) IsPublic() bool     { return e.Privacy == PrivacyPublic }
func (e Entry) IsPending() bool    { return e.PendingApproval }

// Named is implemented by the snapshot types a template may embed.
type Named interface {
	GetName() string
}

// TemplateItem is either a reference to a catalog item by name or an
// embedded snapshot of one. References encode as a bare JSON string,
// snapshots as an object.
type TemplateItem[S Named] struct {
	Ref      string
	Snapshot *S
}

// Reference returns a template item pointing at the catalog item called name.
func Reference[S Named](name string) TemplateItem[S] {
	return TemplateItem[S]{Ref: name}
}

// Embed returns a template item carrying a snapshot.
func Embed[S Named](s S) TemplateItem[S] {
	return TemplateItem[S]{Snapshot: &s}
}

// Name returns the catalog name the item points at.
func (t TemplateItem[S]) Name() string {
	if t.Snapshot != nil {
		return (*t.Snapshot).GetName()
	}
	return t.Ref
}

// IsSnapshot reports whether the item embeds a snapshot.
func (t TemplateItem[S]) IsSnapshot() bool {
	return t.Snapshot != nil
}

func (t TemplateItem[S]) MarshalJSON() ([]byte, error) {
	if t.Snapshot != nil {
		return json.Marshal(t.Snapshot)
	}
	return json.Marshal(t.Ref)
}

func (t *TemplateItem[S]) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		t.Snapshot = nil
		return json.Unmarshal(data, &t.Ref)
	}
	var s S
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Ref = ""
	t.Snapshot = &s
	return nil
}

type (
	TemplateFood    = TemplateItem[FoodSnapshot]
	TemplateWorkout = TemplateItem[WorkoutSnapshot]
)

// Template is a named bundle of foods and workouts a user can replay.
type Template struct {
	Name      string            `json:"name"`
	User      string            `json:"user"`
	Foods     []TemplateFood    `json:"foods"`
	Workouts  []TemplateWorkout `json:"workouts"`
	CreatedAt string            `json:"created_at"`
}

type HistoryEventType string

const (
	HistoryEventSubmitted     HistoryEventType = "submitted"
	HistoryEventApproved      HistoryEventType = "approved"
	HistoryEventRejected      HistoryEventType = "rejected"
	HistoryEventDeleted       HistoryEventType = "deleted"
	HistoryEventEntryApproved HistoryEventType = "entry_approved"
	HistoryEventEntryRejected HistoryEventType = "entry_rejected"
	HistoryEventUserBanned    HistoryEventType = "user_banned"
	HistoryEventUserTimedOut  HistoryEventType = "user_timed_out"
	HistoryEventUserUnbanned  HistoryEventType = "user_unbanned"
	HistoryEventRoleChanged   HistoryEventType = "role_changed"
)

// HistoryEvent records a moderation-relevant action.
type HistoryEvent struct {
	ID        string           `json:"id"`
	Type      HistoryEventType `json:"type"`
	Kind      Kind             `json:"kind"`
	Subject   string           `json:"subject"`
	Actor     string           `json:"actor"`
	CreatedAt time.Time        `json:"created_at"`
}
