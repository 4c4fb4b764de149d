package permissions

import "github.com/reviewdb-dev/reviewdb/internal/models"

// Predicates over (role, identity) used by the handlers. Routes that allow
// anonymous reads simply skip the auth middleware, so every caller here is
// already authenticated.

func IsAdmin(role string) bool {
	return role == models.RoleAdmin
}

func IsModerator(role string) bool {
	return role == models.RoleModerator
}

// CanManageCatalog gates writes to categories, genres and titles.
func CanManageCatalog(role string) bool {
	return IsAdmin(role)
}

// CanModifyFeedback gates updates and deletes of reviews and comments.
func CanModifyFeedback(role string, userID uint, authorID uint) bool {
	return userID == authorID || IsModerator(role) || IsAdmin(role)
}
