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

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Bio       string `json:"bio"`
	Role      string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func toUserResponse(user models.User) UserResponse {
	return UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Role:      user.Role,
	}
}

func findUserByUsername(ctx *gin.Context) (models.User, bool) {
	var user models.User

	username := ctx.Param("username")

	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Database error when fetching user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return models.User{}, false
	}

	return user, true
}

// usernameInUse reports whether another user (any but excludeID) holds the
// given username.
func usernameInUse(username string, excludeID uint) (bool, error) {
	var existing models.User

	err := db.DB.Where("username = ? AND id <> ?", username, excludeID).First(&existing).Error

	if err == nil {
		return true, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	return false, err
}

func emailInUse(email string, excludeID uint) (bool, error) {
	var existing models.User

	err := db.DB.Where("email = ? AND id <> ?", email, excludeID).First(&existing).Error

	if err == nil {
		return true, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	return false, err
}

func ListUsers(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	query := db.DB.Model(&models.User{})

	if search := ctx.Query("search"); search != "" {
		query = query.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var count int64

	if err := query.Count(&count).Error; err != nil {
		log.Printf("Failed to count users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	page := utils.GetPage(ctx)

	var users []models.User

	if err := query.Order("username").Limit(page.Size).Offset(page.Offset()).Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	results := make([]UserResponse, 0, len(users))

	for _, user := range users {
		results = append(results, toUserResponse(user))
	}

	ctx.JSON(http.StatusOK, utils.PaginatedResponse{Count: count, Results: results})
}

func CreateUser(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	var req CreateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateUsername(req.Username); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if inUse, err := usernameInUse(req.Username, 0); err != nil {
		log.Printf("Database error when checking username: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	} else if inUse {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already in use"})
		return
	}

	if inUse, err := emailInUse(req.Email, 0); err != nil {
		log.Printf("Database error when checking email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	} else if inUse {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
		return
	}

	role := req.Role

	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		// The unique username and email indexes backstop the checks above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already in use"})
			return
		}

		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, toUserResponse(user))
}

func GetUser(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	user, ok := findUserByUsername(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

func UpdateUser(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	user, ok := findUserByUsername(ctx)

	if !ok {
		return
	}

	var req UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates, ok := buildUserUpdates(ctx, &req, user.ID)

	if !ok {
		return
	}

	if req.Role != nil {
		updates["role"] = *req.Role
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusOK, toUserResponse(user))
		return
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.First(&user, user.ID).Error; err != nil {
		log.Printf("Failed to refresh user data: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

func DeleteUser(ctx *gin.Context) {
	if _, ok := requireAdmin(ctx); !ok {
		return
	}

	user, ok := findUserByUsername(ctx)

	if !ok {
		return
	}

	// Hard delete so the username and email can be reused. The user's
	// reviews go with them, along with any comments under those reviews.
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("author_id = ?", user.ID)

		if err := tx.Unscoped().Where("review_id IN (?)", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("author_id = ?", user.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&user).Error
	})

	if err != nil {
		log.Printf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func GetMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe lets any authenticated user edit their own record. A role field in
// the body is ignored rather than rejected, so a self-update cannot escalate.
func UpdateMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates, ok := buildUserUpdates(ctx, &req, user.ID)

	if !ok {
		return
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusOK, toUserResponse(user))
		return
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.First(&user, user.ID).Error; err != nil {
		log.Printf("Failed to refresh user data: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, toUserResponse(user))
}

// buildUserUpdates validates the shared, non-role fields of a partial user
// update and translates them to a column map. Writes an error response and
// returns false on invalid input.
func buildUserUpdates(ctx *gin.Context, req *UpdateUserRequest, userID uint) (map[string]interface{}, bool) {
	updates := make(map[string]interface{})

	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}

		if inUse, err := usernameInUse(*req.Username, userID); err != nil {
			log.Printf("Database error when checking username: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return nil, false
		} else if inUse {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already in use"})
			return nil, false
		}

		updates["username"] = *req.Username
	}

	if req.Email != nil {
		if inUse, err := emailInUse(*req.Email, userID); err != nil {
			log.Printf("Database error when checking email: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return nil, false
		} else if inUse {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
			return nil, false
		}

		updates["email"] = *req.Email
	}

	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}

	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}

	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}

	return updates, true
}
