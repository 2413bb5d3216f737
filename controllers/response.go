package controllers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/models"
	"gorm.io/gorm"
)

// respondError writes the standard error envelope.
// The underlying error text is only exposed outside production.
func respondError(c *gin.Context, status int, code, message string, err error) {
	body := gin.H{
		"code":    code,
		"message": message,
	}

	if err != nil {
		config.Logger().Warnw("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"code", code,
			"error", err.Error(),
		)
		if cfg := config.GetConfig(); cfg == nil || !cfg.IsProduction() {
			body["details"] = err.Error()
		}
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// isDuplicateKeyError checks for unique violations (works with MySQL, PostgreSQL and SQLite)
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "unique")
}

// userExists reports whether a user row with userID exists
func userExists(db *gorm.DB, userID string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
