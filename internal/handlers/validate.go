package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/internal/middleware"
	"github.com/reviewdb-dev/reviewdb/internal/permissions"
	"github.com/reviewdb-dev/reviewdb/internal/utils"
)

var (
	usernameRegexp = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRegexp     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func validateUsername(username string) error {
	if strings.EqualFold(username, "me") {
		return fmt.Errorf("Username 'me' is reserved")
	}

	if !usernameRegexp.MatchString(username) {
		return fmt.Errorf("Username may only contain letters, digits and @/./+/-/_ characters")
	}

	return nil
}

func validateSlug(slug string) error {
	if !slugRegexp.MatchString(slug) {
		return fmt.Errorf("Slug may only contain letters, digits, hyphens and underscores")
	}

	return nil
}

// requireAdmin answers 403 and returns false when the current user is not an
// admin. The auth middleware has already rejected anonymous callers.
func requireAdmin(ctx *gin.Context) (middleware.AuthenticatedUser, bool) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return middleware.AuthenticatedUser{}, false
	}

	if !permissions.IsAdmin(currentUser.Role) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return middleware.AuthenticatedUser{}, false
	}

	return currentUser, true
}
