package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reviewdb-dev/reviewdb/db"
	"github.com/reviewdb-dev/reviewdb/internal/auth"
	"github.com/reviewdb-dev/reviewdb/internal/mailer"
	"github.com/reviewdb-dev/reviewdb/internal/models"
	"gorm.io/gorm"
)

type SignUpRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email,max=254"`
}

type SignUpResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type GetTokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

var Mail mailer.Mailer = &mailer.LogMailer{}

func InitMailer() {
	Mail = mailer.New()
}

// SignUp issues a fresh confirmation code to a (username, email) pair,
// creating the user on first contact. Repeating the exact same pair is
// idempotent; reusing either field with a different counterpart is rejected.
func SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateUsername(req.Username); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var taken models.User

	err := db.DB.Where("username = ? AND email <> ?", req.Username, req.Email).First(&taken).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already in use"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking username: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	err = db.DB.Where("email = ? AND username <> ?", req.Email, req.Username).First(&taken).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var user models.User

	err = db.DB.Where("username = ? AND email = ?", req.Username, req.Email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username: req.Username,
			Email:    req.Email,
			Role:     models.RoleUser,
		}

		if err := db.DB.Create(&user).Error; err != nil {
			// The unique username and email indexes backstop the collision checks above.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already in use"})
				return
			}

			log.Printf("Failed to create user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	} else if err != nil {
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// A new code invalidates any previously issued one.
	code := auth.GenerateConfirmationCode()
	now := time.Now()

	updates := map[string]interface{}{
		"confirmation_code": code,
		"code_issued_at":    &now,
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to store confirmation code: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := Mail.SendConfirmationCode(user.Email, user.Username, code); err != nil {
		log.Printf("Failed to send confirmation code: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send confirmation code"})
		return
	}

	ctx.JSON(http.StatusOK, SignUpResponse{
		Username: user.Username,
		Email:    user.Email,
	})
}

// GetToken exchanges a valid confirmation code for a signed access token.
// Codes are single-use: a successful exchange clears the stored code.
func GetToken(ctx *gin.Context) {
	var req GetTokenRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User

	err := db.DB.Where("username = ?", req.Username).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Database error when fetching user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if !auth.CheckConfirmationCode(user.ConfirmationCode, user.CodeIssuedAt, req.ConfirmationCode) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confirmation code"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Username, user.Role)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Invalidate the code only once a token has actually been issued, so a
	// signing failure does not burn the user's code.
	updates := map[string]interface{}{
		"confirmation_code": "",
		"code_issued_at":    nil,
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to invalidate confirmation code: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}
