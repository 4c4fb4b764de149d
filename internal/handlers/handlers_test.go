package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/auth"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/reviewdb-dev/reviewdb/internal/router"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTest wires the router against a throwaway sqlite database.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase())

	return router.NewRouter()
}

func createUser(t *testing.T, username string, role string) models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}

	require.NoError(t, db.DB.Create(&user).Error)

	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Username, user.Role)
	require.NoError(t, err)

	return token
}

func createCategory(t *testing.T, name string, slug string) models.Category {
	t.Helper()

	category := models.Category{SlugModel: models.SlugModel{Name: name, Slug: slug}}
	require.NoError(t, db.DB.Create(&category).Error)

	return category
}

func createGenre(t *testing.T, name string, slug string) models.Genre {
	t.Helper()

	genre := models.Genre{SlugModel: models.SlugModel{Name: name, Slug: slug}}
	require.NoError(t, db.DB.Create(&genre).Error)

	return genre
}

func createTitle(t *testing.T, name string, year int, category *models.Category, genres ...models.Genre) models.Title {
	t.Helper()

	title := models.Title{
		Name:   name,
		Year:   year,
		Genres: genres,
	}

	if category != nil {
		title.CategoryID = &category.ID
	}

	require.NoError(t, db.DB.Create(&title).Error)

	return title
}

func createReview(t *testing.T, title models.Title, author models.User, score int) models.Review {
	t.Helper()

	review := models.Review{
		Feedback: models.Feedback{Text: "review text"},
		TitleID:  title.ID,
		AuthorID: author.ID,
		Score:    score,
	}

	require.NoError(t, db.DB.Create(&review).Error)

	return review
}

func createComment(t *testing.T, review models.Review, author models.User) models.Comment {
	t.Helper()

	comment := models.Comment{
		Feedback: models.Feedback{Text: "comment text"},
		ReviewID: review.ID,
		AuthorID: author.ID,
	}

	require.NoError(t, db.DB.Create(&comment).Error)

	return comment
}

// doJSON performs a request against the router, optionally authenticated.
func doJSON(t *testing.T, r *gin.Engine, method string, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
