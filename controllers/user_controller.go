package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/models"
	"github.com/heartcare-app/heartcare-api/utils"
	"gorm.io/gorm"
)

// RegisterRequest represents the request body for creating a user
type RegisterRequest struct {
	UID      string `json:"uid" binding:"required,max=50"`
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,max=50"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents the request body for updating a health profile.
// Absent fields keep their stored value; fields sent as null are cleared.
type UpdateUserRequest struct {
	Age            *int     `json:"age" binding:"omitempty,gte=0,lte=150"`
	Sex            *string  `json:"sex" binding:"omitempty,max=10"`
	HeightCm       *float64 `json:"height_cm" binding:"omitempty,gt=0"`
	WeightKg       *float64 `json:"weight_kg" binding:"omitempty,gt=0"`
	SmokingHistory *bool    `json:"smoking_history"`
	SkinCancer     *bool    `json:"skin_cancer"`
	OtherCancer    *bool    `json:"other_cancer"`
	Diabetes       *bool    `json:"diabetes"`
	Arthritis      *bool    `json:"arthritis"`
	Depression     *bool    `json:"depression"`
}

// healthColumns are the profile columns, each named like its JSON key
var healthColumns = []string{
	"age", "sex", "height_cm", "weight_kg",
	"smoking_history", "skin_cancer", "other_cancer", "diabetes", "arthritis", "depression",
}

// updates returns the column updates for the fields present in the request.
// fields is the raw body, used to tell an explicit null from an absent key.
func (r *UpdateUserRequest) updates(fields map[string]json.RawMessage) map[string]interface{} {
	updates := make(map[string]interface{})
	for _, column := range healthColumns {
		if raw, ok := fields[column]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			updates[column] = nil
		}
	}
	if r.Age != nil {
		updates["age"] = *r.Age
	}
	if r.Sex != nil {
		updates["sex"] = *r.Sex
	}
	if r.HeightCm != nil {
		updates["height_cm"] = *r.HeightCm
	}
	if r.WeightKg != nil {
		updates["weight_kg"] = *r.WeightKg
	}
	if r.SmokingHistory != nil {
		updates["smoking_history"] = *r.SmokingHistory
	}
	if r.SkinCancer != nil {
		updates["skin_cancer"] = *r.SkinCancer
	}
	if r.OtherCancer != nil {
		updates["other_cancer"] = *r.OtherCancer
	}
	if r.Diabetes != nil {
		updates["diabetes"] = *r.Diabetes
	}
	if r.Arthritis != nil {
		updates["arthritis"] = *r.Arthritis
	}
	if r.Depression != nil {
		updates["depression"] = *r.Depression
	}
	return updates
}

// Register handles POST /api/register - creates a new user
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email, password, and name are required.", err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "PASSWORD_ERROR", "Failed to secure password", err)
		return
	}

	user := models.User{
		UserID:       req.UID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	db := config.GetDB().WithContext(c.Request.Context())
	if err := db.Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this id already exists", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully!",
		"data":    user,
	})
}

// GetUser handles GET /api/user/:id - returns a user's profile
func GetUser(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var user models.User
	if err := db.Where("user_id = ?", c.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateUser handles PUT /api/user/:id - updates a user's health profile
func UpdateUser(c *gin.Context) {
	userID := c.Param("id")
	db := config.GetDB().WithContext(c.Request.Context())

	// Find user first so an unknown id is a 404 regardless of the body
	var user models.User
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch user", err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err)
		return
	}
	var fields map[string]json.RawMessage
	if err := c.ShouldBindBodyWithJSON(&fields); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err)
		return
	}

	// If no fields to update, return current user
	updates := req.updates(fields)
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile", err)
			return
		}

		// Fetch updated user to return; a fresh value so cleared columns read back as nil
		var updated models.User
		if err := db.Where("user_id = ?", userID).First(&updated).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile", err)
			return
		}
		user = updated
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User profile updated successfully!",
		"data":    user,
	})
}

// DeleteUser handles DELETE /api/user/:id - removes a user with their contacts and reports
func DeleteUser(c *gin.Context) {
	userID := c.Param("id")
	db := config.GetDB().WithContext(c.Request.Context())

	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		// Explicit cascade; the foreign keys cascade too where the database enforces them
		if err := tx.Where("user_id = ?", userID).Delete(&models.EmergencyContact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully.",
	})
}
