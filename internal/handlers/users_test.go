package handlers_test

import (
	"net/http"
	"testing"

	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersEndpointsRequireAdmin(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "bob", models.RoleUser)
	token := tokenFor(t, user)

	w := doJSON(t, r, http.MethodGet, "/api/v1/users", nil, token)
	requireStatus(t, w, http.StatusForbidden)

	w = doJSON(t, r, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "eve", "email": "eve@example.com",
	}, token)
	requireStatus(t, w, http.StatusForbidden)

	w = doJSON(t, r, http.MethodGet, "/api/v1/users", nil, "")
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestListUsersSearch(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	createUser(t, "alice", models.RoleUser)
	createUser(t, "alicia", models.RoleUser)
	createUser(t, "bob", models.RoleUser)

	w := doJSON(t, r, http.MethodGet, "/api/v1/users?search=ali", nil, tokenFor(t, admin))
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Count   int64 `json:"count"`
		Results []struct {
			Username string `json:"username"`
		} `json:"results"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(2), resp.Count)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "alice", resp.Results[0].Username)
	assert.Equal(t, "alicia", resp.Results[1].Username)
}

func TestAdminCreatesUserWithRole(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "mod",
		"email":    "mod@example.com",
		"role":     models.RoleModerator,
	}, tokenFor(t, admin))
	requireStatus(t, w, http.StatusCreated)

	var user models.User
	require.NoError(t, db.DB.Where("username = ?", "mod").First(&user).Error)
	assert.Equal(t, models.RoleModerator, user.Role)
}

func TestAdminUserLifecycle(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	createUser(t, "alice", models.RoleUser)
	token := tokenFor(t, admin)

	w := doJSON(t, r, http.MethodGet, "/api/v1/users/alice", nil, token)
	requireStatus(t, w, http.StatusOK)

	w = doJSON(t, r, http.MethodPatch, "/api/v1/users/alice", map[string]string{
		"bio":  "writes reviews",
		"role": models.RoleModerator,
	}, token)
	requireStatus(t, w, http.StatusOK)

	var user models.User
	require.NoError(t, db.DB.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, "writes reviews", user.Bio)
	assert.Equal(t, models.RoleModerator, user.Role)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/users/alice", nil, token)
	requireStatus(t, w, http.StatusNoContent)

	w = doJSON(t, r, http.MethodGet, "/api/v1/users/alice", nil, token)
	requireStatus(t, w, http.StatusNotFound)
}

func TestGetMe(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "bob", models.RoleUser)

	w := doJSON(t, r, http.MethodGet, "/api/v1/users/me", nil, tokenFor(t, user))
	requireStatus(t, w, http.StatusOK)

	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, "bob", resp["username"])
	assert.Equal(t, models.RoleUser, resp["role"])
}

func TestUpdateMeIgnoresRole(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "bob", models.RoleUser)

	w := doJSON(t, r, http.MethodPatch, "/api/v1/users/me", map[string]string{
		"bio":  "hello",
		"role": models.RoleAdmin,
	}, tokenFor(t, user))
	requireStatus(t, w, http.StatusOK)

	var refreshed models.User
	require.NoError(t, db.DB.First(&refreshed, user.ID).Error)
	assert.Equal(t, "hello", refreshed.Bio)
	assert.Equal(t, models.RoleUser, refreshed.Role)
}

func TestUpdateMeRejectsTakenUsername(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "bob", models.RoleUser)
	createUser(t, "alice", models.RoleUser)

	w := doJSON(t, r, http.MethodPatch, "/api/v1/users/me", map[string]string{
		"username": "alice",
	}, tokenFor(t, user))
	requireStatus(t, w, http.StatusBadRequest)
}

func TestDeleteUserFreesUsername(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	alice := createUser(t, "alice", models.RoleUser)
	category := createCategory(t, "Books", "books")
	genre := createGenre(t, "Drama", "drama")
	title := createTitle(t, "Some Book", 2000, &category, genre)
	review := createReview(t, title, alice, 7)
	createComment(t, review, alice)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/users/alice", nil, tokenFor(t, admin))
	requireStatus(t, w, http.StatusNoContent)

	var count int64
	require.NoError(t, db.DB.Unscoped().Model(&models.Review{}).
		Where("author_id = ?", alice.ID).Count(&count).Error)
	assert.Zero(t, count)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
	}, "")
	requireStatus(t, w, http.StatusOK)
}
