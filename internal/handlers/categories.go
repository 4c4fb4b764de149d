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

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50"`
}

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func ListCategories(ctx *gin.Context) {
	query := db.DB.Model(&models.Category{})

	if search := ctx.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var count int64

	if err := query.Count(&count).Error; err != nil {
		log.Printf("Failed to count categories: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	page := utils.GetPage(ctx)

	var categories []models.Category

	if err := query.Order("name").Limit(page.Size).Offset(page.Offset()).Find(&categories).Error; err != nil {
		log.Printf("Failed to list categories: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]CategoryResponse, 0, len(categories))

	for _, category := range categories {
		results = append(results, CategoryResponse{Name: category.Name, Slug: category.Slug})
	}

	ctx.JSON(http.StatusOK, utils.PaginatedResponse{Count: count, Results: results})
}

func CreateCategory(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req CreateCategoryRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateSlug(req.Slug); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Category

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

	category := models.Category{
		SlugModel: models.SlugModel{Name: req.Name, Slug: req.Slug},
	}

	if err := db.DB.Create(&category).Error; err != nil {
		// The unique slug index backstops the check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Slug already in use"})
			return
		}

		log.Printf("Failed to create category: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, CategoryResponse{Name: category.Name, Slug: category.Slug})
}

// DeleteCategory removes a category and detaches it from any titles that
// reference it. Titles themselves survive with a null category.
func DeleteCategory(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var category models.Category

	if err := db.DB.Where("slug = ?", ctx.Param("slug")).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		} else {
			log.Printf("Database error when fetching category: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Title{}).Where("category_id = ?", category.ID).Update("category_id", nil).Error; err != nil {
			return err
		}

		// Hard delete so the slug can be re-created later.
		return tx.Unscoped().Delete(&category).Error
	})

	if err != nil {
		log.Printf("Failed to delete category: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
