package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"github.com/reviewdb-dev/reviewdb/internal/permissions"
	"github.com/reviewdb-dev/reviewdb/internal/utils"
	"gorm.io/gorm"
)

type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

type UpdateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func toReviewResponse(review models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      review.ID,
		Text:    review.Text,
		Author:  review.Author.Username,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
}

// findReview resolves the review from the path, requiring that it belongs to
// the title named in the same path.
func findReview(ctx *gin.Context, titleID uint) (models.Review, bool) {
	reviewID, err := strconv.Atoi(ctx.Param("review_id"))

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return models.Review{}, false
	}

	var review models.Review

	err = db.DB.Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		} else {
			log.Printf("Database error when fetching review: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return models.Review{}, false
	}

	return review, true
}

func ListReviews(ctx *gin.Context) {
	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	query := db.DB.Model(&models.Review{}).Where("title_id = ?", title.ID)

	var count int64

	if err := query.Count(&count).Error; err != nil {
		log.Printf("Failed to count reviews: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	page := utils.GetPage(ctx)

	var reviews []models.Review

	err := query.Preload("Author").
		Order("pub_date DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&reviews).Error

	if err != nil {
		log.Printf("Failed to list reviews: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]ReviewResponse, 0, len(reviews))

	for _, review := range reviews {
		results = append(results, toReviewResponse(review))
	}

	ctx.JSON(http.StatusOK, utils.PaginatedResponse{Count: count, Results: results})
}

func GetReview(ctx *gin.Context) {
	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	review, ok := findReview(ctx, title.ID)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, toReviewResponse(review))
}

// CreateReview stamps the author and title server-side. One review per author
// per title.
func CreateReview(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	var req CreateReviewRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Review

	err = db.DB.Where("title_id = ? AND author_id = ?", title.ID, currentUser.ID).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You have already reviewed this title"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing review: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	review := models.Review{
		Feedback: models.Feedback{Text: req.Text},
		TitleID:  title.ID,
		AuthorID: currentUser.ID,
		Score:    req.Score,
	}

	if err := db.DB.Create(&review).Error; err != nil {
		// The unique (title, author) index backstops the check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "You have already reviewed this title"})
			return
		}

		log.Printf("Failed to create review: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Preload("Author").First(&review, review.ID).Error; err != nil {
		log.Printf("Failed to load review: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, toReviewResponse(review))
}

func UpdateReview(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	review, ok := findReview(ctx, title.ID)

	if !ok {
		return
	}

	if !permissions.CanModifyFeedback(currentUser.Role, currentUser.ID, review.AuthorID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to modify this review"})
		return
	}

	var req UpdateReviewRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})

	if req.Text != nil {
		updates["text"] = *req.Text
	}

	if req.Score != nil {
		if *req.Score < 1 || *req.Score > 10 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Score must be between 1 and 10"})
			return
		}

		updates["score"] = *req.Score
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&review).Updates(updates).Error; err != nil {
			log.Printf("Failed to update review: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := db.DB.Preload("Author").First(&review, review.ID).Error; err != nil {
		log.Printf("Failed to load review: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, toReviewResponse(review))
}

// DeleteReview removes a review and its comments.
func DeleteReview(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title, ok := findTitle(ctx)

	if !ok {
		return
	}

	review, ok := findReview(ctx, title.ID)

	if !ok {
		return
	}

	if !permissions.CanModifyFeedback(currentUser.Role, currentUser.ID, review.AuthorID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to delete this review"})
		return
	}

	// Hard delete so the author can review the title again.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("review_id = ?", review.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&review).Error
	})

	if err != nil {
		log.Printf("Failed to delete review: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
