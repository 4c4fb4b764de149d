package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/reviewdb-dev/reviewdb/internal/utils"
	"gorm.io/gorm"
)

type CreateGenreRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func ListGenres(ctx *gin.Context) {
	query := db.DB.Model(&models.Genre{})

	if search := ctx.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var count int64

	if err := query.Count(&count).Error; err != nil {
		log.Printf("Failed to count genres: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	page := utils.GetPage(ctx)

	var genres []models.Genre

	if err := query.Order("name").Limit(page.Size).Offset(page.Offset()).Find(&genres).Error; err != nil {
		log.Printf("Failed to list genres: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]GenreResponse, 0, len(genres))

	for _, genre := range genres {
		results = append(results, GenreResponse{Name: genre.Name, Slug: genre.Slug})
	}

	ctx.JSON(http.StatusOK, utils.PaginatedResponse{Count: count, Results: results})
}

func CreateGenre(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req CreateGenreRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateSlug(req.Slug); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Genre

	err := db.DB.Where("slug = ?", req.Slug).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Slug already in use"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking slug: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	genre := models.Genre{
		SlugModel: models.SlugModel{Name: req.Name, Slug: req.Slug},
	}

	if err := db.DB.Create(&genre).Error; err != nil {
		// The unique slug index backstops the check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Slug already in use"})
			return
		}

		log.Printf("Failed to create genre: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, GenreResponse{Name: genre.Name, Slug: genre.Slug})
}

// DeleteGenre removes a genre and its title associations. Titles keep their
// other genres.
func DeleteGenre(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var genre models.Genre

	if err := db.DB.Where("slug = ?", ctx.Param("slug")).First(&genre).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Genre not found"})
		} else {
			log.Printf("Database error when fetching genre: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&genre).Association("Titles").Clear(); err != nil {
			return err
		}

		// Hard delete so the slug can be re-created later.
		return tx.Unscoped().Delete(&genre).Error
	})

	if err != nil {
		log.Printf("Failed to delete genre: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
