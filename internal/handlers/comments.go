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

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type UpdateCommentRequest struct {
	Text *string `json:"text"`
}

type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func toCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:      comment.ID,
		Text:    comment.Text,
		Author:  comment.Author.Username,
		PubDate: comment.PubDate,
	}
}

// resolveParentReview walks the title_id/review_id path pair. A review that
// exists but hangs off a different title is treated as absent.
func resolveParentReview(ctx *gin.Context) (models.Review, bool) {
	title, ok := findTitle(ctx)

	if !ok {
		return models.Review{}, false
	}

	return findReview(ctx, title.ID)
}

func findComment(ctx *gin.Context, reviewID uint) (models.Comment, bool) {
	commentID, err := strconv.Atoi(ctx.Param("comment_id"))

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return models.Comment{}, false
	}

	var comment models.Comment

	err = db.DB.Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		} else {
			log.Printf("Database error when fetching comment: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return models.Comment{}, false
	}

	return comment, true
}

func ListComments(ctx *gin.Context) {
	review, ok := resolveParentReview(ctx)

	if !ok {
		return
	}

	query := db.DB.Model(&models.Comment{}).Where("review_id = ?", review.ID)

	var count int64

	if err := query.Count(&count).Error; err != nil {
		log.Printf("Failed to count comments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	page := utils.GetPage(ctx)

	var comments []models.Comment

	err := query.Preload("Author").
		Order("pub_date DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&comments).Error

	if err != nil {
		log.Printf("Failed to list comments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]CommentResponse, 0, len(comments))

	for _, comment := range comments {
		results = append(results, toCommentResponse(comment))
	}

	ctx.JSON(http.StatusOK, utils.PaginatedResponse{Count: count, Results: results})
}

func GetComment(ctx *gin.Context) {
	review, ok := resolveParentReview(ctx)

	if !ok {
		return
	}

	comment, ok := findComment(ctx, review.ID)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, toCommentResponse(comment))
}

func CreateComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	review, ok := resolveParentReview(ctx)

	if !ok {
		return
	}

	var req CreateCommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment := models.Comment{
		Feedback: models.Feedback{Text: req.Text},
		ReviewID: review.ID,
		AuthorID: currentUser.ID,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		log.Printf("Failed to load comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, toCommentResponse(comment))
}

func UpdateComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	review, ok := resolveParentReview(ctx)

	if !ok {
		return
	}

	comment, ok := findComment(ctx, review.ID)

	if !ok {
		return
	}

	if !permissions.CanModifyFeedback(currentUser.Role, currentUser.ID, comment.AuthorID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to modify this comment"})
		return
	}

	var req UpdateCommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Text != nil {
		if err := db.DB.Model(&comment).Update("text", *req.Text).Error; err != nil {
			log.Printf("Failed to update comment: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := db.DB.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		log.Printf("Failed to load comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, toCommentResponse(comment))
}

func DeleteComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	review, ok := resolveParentReview(ctx)

	if !ok {
		return
	}

	comment, ok := findComment(ctx, review.ID)

	if !ok {
		return
	}

	if !permissions.CanModifyFeedback(currentUser.Role, currentUser.ID, comment.AuthorID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to delete this comment"})
		return
	}

	if err := db.DB.Unscoped().Delete(&comment).Error; err != nil {
		log.Printf("Failed to delete comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
