// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/chaosempire/chaospanel/internal/app/projection"
	"github.com/chaosempire/chaospanel/internal/app/system/auth"
	"github.com/chaosempire/chaospanel/internal/domain/models"
)

// UserCtx returns the user's role, email, account id, and a found flag.
// If no user is present in context, or the session carries no account id
// or no known role, it returns "", "", "", false.
func UserCtx(r *http.Request) (role models.Role, email string, accountID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return "", "", "", false
	}
	role, valid := models.ParseRole(user.Role)
	if !valid {
		return "", "", "", false
	}
	return role, user.Email, user.ID, true
}

// IsPrimaryAdmin reports whether the current request's user is the primary admin.
func IsPrimaryAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RolePrimaryAdmin
}

// IsRecruiter reports whether the current request's user is a recruiter.
func IsRecruiter(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleRecruiter
}

// IsSubordinate reports whether the current request's user is a subordinate.
func IsSubordinate(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSubordinate
}

// Actor returns the signed-in user as the identity a projection engine acts
// for, plus the session's engine key.
func Actor(r *http.Request) (projection.Actor, string, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return projection.Actor{}, "", false
	}
	role, _, id, ok := UserCtx(r)
	if !ok {
		return projection.Actor{}, "", false
	}
	return projection.Actor{Credential: user.Token, ID: id, Tier: role}, user.EngineKey, true
}

// Profile returns the dashboard profile for the current user's role.
func Profile(r *http.Request) (projection.Profile, bool) {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return projection.Profile{}, false
	}
	return projection.ProfileFor(role)
}
