package engine

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/nutrition"
	"github.com/jon4hz/lifetrack/internal/policy"
	"github.com/samber/lo"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

var digitPattern = regexp.MustCompile(`\d`)

// Signup creates a regular user account.
func (e *Engine) Signup(ctx context.Context, username, password, repeat string) (database.User, error) {
	username = strings.TrimSpace(username)
	if err := nutrition.ValidateName(username, "Username"); err != nil {
		return database.User{}, asValidation(err)
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return database.User{}, validationErrorf("Username must be at least %d characters long.", minUsernameLength)
	}
	if strings.Contains(username, ",") {
		return database.User{}, validationErrorf("Commas are not allowed in username.")
	}
	if len(password) < minPasswordLength {
		return database.User{}, validationErrorf("Password must be at least %d characters long.", minPasswordLength)
	}
	if !digitPattern.MatchString(password) {
		return database.User{}, validationErrorf("Password must contain at least one number.")
	}
	if password != repeat {
		return database.User{}, validationErrorf("Passwords do not match.")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return database.User{}, err
	}
	user := database.User{
		Username:     username,
		PasswordHash: hash,
		Role:         database.RoleUser,
		Profile:      &database.Profile{},
	}
	err = e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		if usernameTaken(users, username) {
			return nil, validationErrorf("Username already exists.")
		}
		return append(users, user), nil
	})
	if err != nil {
		return database.User{}, err
	}
	log.Info("New user signed up", "user", username)
	return user, nil
}

func usernameTaken(users []database.User, username string) bool {
	return slices.ContainsFunc(users, func(u database.User) bool {
		return strings.EqualFold(u.Username, username)
	})
}

// UsernameAvailable reports whether username can still be registered.
// reason is set when it cannot.
func (e *Engine) UsernameAvailable(ctx context.Context, username string) (available bool, reason string, err error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLength {
		return false, "Username too short", nil
	}
	users, err := e.db.Users.Load(ctx)
	if err != nil {
		return false, "", err
	}
	if usernameTaken(users, username) {
		return false, "Username already exists", nil
	}
	return true, "", nil
}

// Login checks the credentials of username and returns the account.
// Passwords stored in an older hash format are upgraded on success.
func (e *Engine) Login(ctx context.Context, username, password string) (database.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return database.User{}, validationErrorf("Please enter both username and password.")
	}
	user, err := e.findUser(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return database.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return database.User{}, err
	}

	ok, legacy, err := checkPassword(user.PasswordHash, password)
	if err != nil {
		log.Warn("failed to verify password", "user", username, "error", err)
	}
	if !ok {
		return database.User{}, ErrInvalidCredentials
	}
	if err := e.checkSuspension(user); err != nil {
		return database.User{}, err
	}

	if legacy {
		e.upgradePassword(ctx, username, password)
	}
	return user, nil
}

func (e *Engine) upgradePassword(ctx context.Context, username, password string) {
	hash, err := hashPassword(password)
	if err != nil {
		log.Errorf("failed to hash password: %v", err)
		return
	}
	err = e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		i := slices.IndexFunc(users, func(u database.User) bool { return u.Username == username })
		if i >= 0 {
			users[i].PasswordHash = hash
		}
		return users, nil
	})
	if err != nil {
		log.Errorf("failed to upgrade password hash of %s: %v", username, err)
	}
}

func (e *Engine) checkSuspension(user database.User) error {
	if !policy.IsSuspended(user.SuspendedUntil, e.clock.Now()) {
		return nil
	}
	until, _ := policy.ParseSuspension(*user.SuspendedUntil)
	return &SuspendedError{Until: until}
}

func (e *Engine) findUser(ctx context.Context, username string) (database.User, error) {
	users, err := e.db.Users.Load(ctx)
	if err != nil {
		return database.User{}, err
	}
	user, ok := lo.Find(users, func(u database.User) bool { return u.Username == username })
	if !ok {
		return database.User{}, notFound("user", username)
	}
	return user, nil
}

// CurrentUser returns the account behind a session. Suspended accounts are refused.
func (e *Engine) CurrentUser(ctx context.Context, username string) (database.User, error) {
	user, err := e.findUser(ctx, username)
	if err != nil {
		return database.User{}, err
	}
	if err := e.checkSuspension(user); err != nil {
		return database.User{}, err
	}
	return user, nil
}

// NeedsOnboarding reports whether user has not set a calorie goal yet.
func NeedsOnboarding(user database.User) bool {
	return user.Profile == nil || user.Profile.CalorieGoal == 0
}

// IsBirthday reports whether today is user's birthday.
func (e *Engine) IsBirthday(user database.User) bool {
	if user.Profile == nil {
		return false
	}
	return nutrition.IsBirthday(user.Profile.Birthday, e.clock.Today())
}

// ProfileView is a profile together with the recommendation for its metrics.
type ProfileView struct {
	Username        string                   `json:"username"`
	Role            database.Role            `json:"role"`
	Profile         database.Profile         `json:"profile"`
	Recommendation  nutrition.Recommendation `json:"recommendation"`
	NeedsOnboarding bool                     `json:"needs_onboarding"`
	IsBirthday      bool                     `json:"is_birthday"`
}

// Profile returns actor's profile and the recommended goals.
func (e *Engine) Profile(ctx context.Context, actor policy.Actor) (*ProfileView, error) {
	user, err := e.findUser(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{
		Username:        user.Username,
		Role:            user.Role,
		NeedsOnboarding: NeedsOnboarding(user),
		IsBirthday:      e.IsBirthday(user),
	}
	if user.Profile != nil {
		view.Profile = *user.Profile
	}
	view.Recommendation = nutrition.Recommend(nutrition.MetricsFromProfile(user.Profile))
	return view, nil
}

// ProfileUpdate holds the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	CalorieGoal   *float64 `json:"calorie_goal"`
	ProteinGoal   *float64 `json:"protein_goal"`
	CarbGoal      *float64 `json:"carb_goal"`
	FatGoal       *float64 `json:"fat_goal"`
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	Age           *float64 `json:"age"`
	ActivityLevel *float64 `json:"activity_level"`
	Gender        *string  `json:"gender"`
	Goal          *string  `json:"goal"`
	Birthday      *string  `json:"birthday"`
}

// UpdateProfile applies upd to actor's profile.
func (e *Engine) UpdateProfile(ctx context.Context, actor policy.Actor, upd ProfileUpdate) (database.Profile, error) {
	numbers := []struct {
		field string
		value *float64
	}{
		{"Calorie goal", upd.CalorieGoal},
		{"Protein goal", upd.ProteinGoal},
		{"Carb goal", upd.CarbGoal},
		{"Fat goal", upd.FatGoal},
		{"Weight", upd.Weight},
		{"Height", upd.Height},
		{"Age", upd.Age},
		{"Activity level", upd.ActivityLevel},
	}
	var errs []error
	for _, n := range numbers {
		if n.value != nil {
			errs = append(errs, nutrition.ValidateRange(*n.value, n.field, 0, nutrition.MaxProfileValue))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return database.Profile{}, asValidation(err)
	}
	if upd.Birthday != nil && *upd.Birthday != "" {
		if _, err := clock.ParseDate(*upd.Birthday, e.clock.Now().Location()); err != nil {
			return database.Profile{}, validationErrorf("Invalid birthday, expected YYYY-MM-DD.")
		}
	}

	var profile database.Profile
	err := e.updateUser(ctx, actor.Username, func(u *database.User) {
		if u.Profile == nil {
			u.Profile = &database.Profile{}
		}
		p := u.Profile
		setNumber(&p.CalorieGoal, upd.CalorieGoal)
		setNumber(&p.ProteinGoal, upd.ProteinGoal)
		setNumber(&p.CarbGoal, upd.CarbGoal)
		setNumber(&p.FatGoal, upd.FatGoal)
		setNumber(&p.Weight, upd.Weight)
		setNumber(&p.Height, upd.Height)
		setNumber(&p.Age, upd.Age)
		setNumber(&p.ActivityLevel, upd.ActivityLevel)
		if upd.Gender != nil {
			p.Gender = *upd.Gender
		}
		if upd.Goal != nil {
			p.Goal = *upd.Goal
		}
		if upd.Birthday != nil {
			p.Birthday = *upd.Birthday
		}
		profile = *p
	})
	return profile, err
}

func setNumber(dst *database.Number, v *float64) {
	if v != nil {
		*dst = database.Number(*v)
	}
}

// Onboard stores the first profile of actor with goals derived from the recommendation.
func (e *Engine) Onboard(ctx context.Context, actor policy.Actor, in nutrition.Onboarding) (database.Profile, error) {
	if in.Birthday != "" {
		if _, err := clock.ParseDate(in.Birthday, e.clock.Now().Location()); err != nil {
			return database.Profile{}, validationErrorf("Invalid birthday, expected YYYY-MM-DD.")
		}
	}
	profile, err := nutrition.BuildProfile(in)
	if err != nil {
		return database.Profile{}, asValidation(err)
	}
	err = e.updateUser(ctx, actor.Username, func(u *database.User) {
		u.Profile = &profile
	})
	if err != nil {
		return database.Profile{}, err
	}
	e.invalidateStats(ctx, actor.Username)
	return profile, nil
}

func (e *Engine) updateUser(ctx context.Context, username string, fn func(*database.User)) error {
	return e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		i := slices.IndexFunc(users, func(u database.User) bool { return u.Username == username })
		if i < 0 {
			return nil, notFound("user", username)
		}
		fn(&users[i])
		return users, nil
	})
}

// EnsureAdmins promotes the configured admin users that exist.
func (e *Engine) EnsureAdmins(ctx context.Context) error {
	if len(e.cfg.AdminUsers) == 0 {
		return nil
	}
	var promoted []string
	err := e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		for i := range users {
			if users[i].Role != database.RoleAdmin && slices.Contains(e.cfg.AdminUsers, users[i].Username) {
				users[i].Role = database.RoleAdmin
				promoted = append(promoted, users[i].Username)
			}
		}
		return users, nil
	})
	if err != nil {
		return err
	}
	for _, username := range promoted {
		log.Info("Promoted configured admin", "user", username)
		e.recordEvent(ctx, database.HistoryEventRoleChanged, database.KindUser, username, systemActor)
	}
	return nil
}

// ClearSuspension lifts the suspension of username on behalf of an operator.
func (e *Engine) ClearSuspension(ctx context.Context, username string) error {
	if err := e.setSuspension(ctx, username, nil); err != nil {
		return err
	}
	e.recordEvent(ctx, database.HistoryEventUserUnbanned, database.KindUser, username, systemActor)
	return nil
}
