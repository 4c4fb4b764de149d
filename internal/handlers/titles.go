package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/reviewdb-dev/reviewdb/internal/utils"
	"gorm.io/gorm"
)

type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required"`
	Genre       []string `json:"genre" binding:"required"`
}

type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

type TitleResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Description string            `json:"description"`
	Rating      *int              `json:"rating"`
	Category    *CategoryResponse `json:"category"`
	Genre       []GenreResponse   `json:"genre"`
}

// ratingExpr derives the title rating at read time so it can never go stale.
const ratingExpr = "(SELECT AVG(score) FROM reviews WHERE reviews.title_id = titles.id AND reviews.deleted_at IS NULL)"

var titleOrderings = map[string]string{
	"id":     "titles.id",
	"name":   "titles.name",
	"year":   "titles.year",
	"rating": ratingExpr,
}

func toTitleResponse(title models.Title, rating *int) TitleResponse {
	resp := TitleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
		Rating:      rating,
		Genre:       make([]GenreResponse, 0, len(title.Genres)),
	}

	if title.Category != nil {
		resp.Category = &CategoryResponse{Name: title.Category.Name, Slug: title.Category.Slug}
	}

	for _, genre := range title.Genres {
		resp.Genre = append(resp.Genre, GenreResponse{Name: genre.Name, Slug: genre.Slug})
	}

	return resp
}

// titleRatings returns the truncated mean review score per title. Titles
// without reviews are absent from the map.
func titleRatings(titleIDs []uint) (map[uint]int, error) {
	if len(titleIDs) == 0 {
		return map[uint]int{}, nil
	}

	type ratingRow struct {
		TitleID uint
		Avg     float64
	}

	var rows []ratingRow

	err := db.DB.Model(&models.Review{}).
		Select("title_id, AVG(score) AS avg").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	ratings := make(map[uint]int, len(rows))

	for _, row := range rows {
		ratings[row.TitleID] = int(row.Avg)
	}

	return ratings, nil
}

func findTitle(ctx *gin.Context) (models.Title, bool) {
	titleID, err := strconv.Atoi(ctx.Param("title_id"))

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
		return models.Title{}, false
	}

	var title models.Title

	if err := db.DB.First(&title, titleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
		} else {
			log.Printf("Database error when fetching title: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return models.Title{}, false
	}

	return title, true
}

// resolveCategory maps a category slug to its record. An unresolvable slug is
// a validation failure, not a missing resource.
func resolveCategory(ctx *gin.Context, slug string) (models.Category, bool) {
	var category models.Category

	if err := db.DB.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category slug"})
		} else {
			log.Printf("Database error when resolving category: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return models.Category{}, false
	}

	return category, true
}

func resolveGenres(ctx *gin.Context, slugs []string) ([]models.Genre, bool) {
	if len(slugs) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "At least one genre is required"})
		return nil, false
	}

	var genres []models.Genre

	if err := db.DB.Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		log.Printf("Database error when resolving genres: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	found := make(map[string]bool, len(genres))

	for _, genre := range genres {
		found[genre.Slug] = true
	}

	for _, slug := range slugs {
		if !found[slug] {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genre slug: " + slug})
			return nil, false
		}
	}

	return genres, true
}

func ListTitles(ctx *gin.Context) {
	query := db.DB.Model(&models.Title{})

	if category := ctx.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = titles.category_id AND categories.deleted_at IS NULL").
			Where("categories.slug = ?", category)
	}

	if genre := ctx.Query("genre"); genre != "" {
		query = query.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id AND genres.deleted_at IS NULL").
			Where("genres.slug = ?", genre)
	}

	if name := ctx.Query("name"); name != "" {
		query = query.Where("LOWER(titles.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	if year := ctx.Query("year"); year != "" {
		yearInt, err := strconv.Atoi(year)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year filter"})
			return
		}

		query = query.Where("titles.year = ?", yearInt)
	}

	var count int64

	if err := query.Count(&count).Error; err != nil {
		log.Printf("Failed to count titles: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	order := "titles.id"

	if ordering := ctx.Query("ordering"); ordering != "" {
		field := strings.TrimPrefix(ordering, "-")

		expr, ok := titleOrderings[field]

		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ordering field"})
			return
		}

		order = expr

		if strings.HasPrefix(ordering, "-") {
			order += " DESC"
		}
	}

	page := utils.GetPage(ctx)

	var titles []models.Title

	err := query.Preload("Category").Preload("Genres").
		Order(order).
		Limit(page.Size).Offset(page.Offset()).
		Find(&titles).Error

	if err != nil {
		log.Printf("Failed to list titles: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	titleIDs := make([]uint, 0, len(titles))

	for _, title := range titles {
		titleIDs = append(titleIDs, title.ID)
	}

	ratings, err := titleRatings(titleIDs)

	if err != nil {
		log.Printf("Failed to compute ratings: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]TitleResponse, 0, len(titles))

	for _, title := range titles {
		var rating *int

		if value, ok := ratings[title.ID]; ok {
			rating = &value
		}

		results = append(results, toTitleResponse(title, rating))
	}

	ctx.JSON(http.StatusOK, utils.PaginatedResponse{Count: count, Results: results})
}

func GetTitle(ctx *gin.Context) {
	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	respondWithTitle(ctx, http.StatusOK, title.ID)
}

func CreateTitle(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req CreateTitleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Year > time.Now().Year() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Year cannot be in the future"})
		return
	}

	category, ok := resolveCategory(ctx, req.Category)

	if !ok {
		return
	}

	genres, ok := resolveGenres(ctx, req.Genre)

	if !ok {
		return
	}

	title := models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		CategoryID:  &category.ID,
		Genres:      genres,
	}

	if err := db.DB.Create(&title).Error; err != nil {
		log.Printf("Failed to create title: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	respondWithTitle(ctx, http.StatusCreated, title.ID)
}

func UpdateTitle(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	var req UpdateTitleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}

	if req.Year != nil {
		if *req.Year > time.Now().Year() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Year cannot be in the future"})
			return
		}

		updates["year"] = *req.Year
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.Category != nil {
		category, ok := resolveCategory(ctx, *req.Category)

		if !ok {
			return
		}

		updates["category_id"] = category.ID
	}

	var genres []models.Genre

	if req.Genre != nil {
		resolved, ok := resolveGenres(ctx, *req.Genre)

		if !ok {
			return
		}

		genres = resolved
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&title).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Genre != nil {
			if err := tx.Model(&title).Association("Genres").Replace(genres); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		log.Printf("Failed to update title: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	respondWithTitle(ctx, http.StatusOK, title.ID)
}

// DeleteTitle removes a title together with its reviews and their comments.
func DeleteTitle(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", title.ID)

		if err := tx.Unscoped().Where("review_id IN (?)", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("title_id = ?", title.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&title).Association("Genres").Clear(); err != nil {
			return err
		}

		return tx.Unscoped().Delete(&title).Error
	})

	if err != nil {
		log.Printf("Failed to delete title: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// respondWithTitle reloads the title with its associations and rating and
// writes the read view.
func respondWithTitle(ctx *gin.Context, status int, titleID uint) {
	var title models.Title

	err := db.DB.Preload("Category").Preload("Genres").First(&title, titleID).Error

	if err != nil {
		log.Printf("Failed to load title: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ratings, err := titleRatings([]uint{title.ID})

	if err != nil {
		log.Printf("Failed to compute rating: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var rating *int

	if value, ok := ratings[title.ID]; ok {
		rating = &value
	}

	ctx.JSON(status, toTitleResponse(title, rating))
}
