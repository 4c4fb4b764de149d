package handlers_test

import (
	"net/http"
	"testing"

	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCategoriesIsPublic(t *testing.T) {
	r := setupTest(t)
	createCategory(t, "Books", "books")
	createCategory(t, "Movies", "movies")

	w := doJSON(t, r, http.MethodGet, "/api/v1/categories", nil, "")
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Count   int64 `json:"count"`
		Results []struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"results"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(2), resp.Count)
	assert.Equal(t, "books", resp.Results[0].Slug)
}

func TestListCategoriesSearch(t *testing.T) {
	r := setupTest(t)
	createCategory(t, "Books", "books")
	createCategory(t, "Movies", "movies")

	w := doJSON(t, r, http.MethodGet, "/api/v1/categories?search=mov", nil, "")
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Count int64 `json:"count"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(1), resp.Count)
}

func TestCreateCategoryRequiresAdmin(t *testing.T) {
	r := setupTest(t)
	user := createUser(t, "bob", models.RoleUser)

	body := map[string]string{"name": "Books", "slug": "books"}

	w := doJSON(t, r, http.MethodPost, "/api/v1/categories", body, "")
	requireStatus(t, w, http.StatusUnauthorized)

	w = doJSON(t, r, http.MethodPost, "/api/v1/categories", body, tokenFor(t, user))
	requireStatus(t, w, http.StatusForbidden)
}

func TestCreateCategory(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	token := tokenFor(t, admin)

	w := doJSON(t, r, http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "Books", "slug": "books",
	}, token)
	requireStatus(t, w, http.StatusCreated)

	// Duplicate slug.
	w = doJSON(t, r, http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "More Books", "slug": "books",
	}, token)
	requireStatus(t, w, http.StatusBadRequest)

	// Slug with invalid characters.
	w = doJSON(t, r, http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "Shows", "slug": "tv shows!",
	}, token)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestDeleteCategoryDetachesTitles(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	category := createCategory(t, "Books", "books")
	genre := createGenre(t, "Drama", "drama")
	title := createTitle(t, "Some Book", 2000, &category, genre)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/categories/books", nil, tokenFor(t, admin))
	requireStatus(t, w, http.StatusNoContent)

	var refreshed models.Title
	require.NoError(t, db.DB.First(&refreshed, title.ID).Error)
	assert.Nil(t, refreshed.CategoryID)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/categories/nope", nil, tokenFor(t, admin))
	requireStatus(t, w, http.StatusNotFound)
}

func TestDeleteCategoryFreesSlug(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	createCategory(t, "Books", "books")
	token := tokenFor(t, admin)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/categories/books", nil, token)
	requireStatus(t, w, http.StatusNoContent)

	w = doJSON(t, r, http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "Books again", "slug": "books",
	}, token)
	requireStatus(t, w, http.StatusCreated)
}

func TestCreateCategorySlugConflictOnInsert(t *testing.T) {
	r := setupTest(t)
	admin := createUser(t, "admin", models.RoleAdmin)
	category := createCategory(t, "Books", "books")

	// A row the duplicate lookup cannot see still trips the unique index.
	require.NoError(t, db.DB.Delete(&category).Error)

	w := doJSON(t, r, http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "Books again", "slug": "books",
	}, tokenFor(t, admin))
	requireStatus(t, w, http.StatusBadRequest)
}
