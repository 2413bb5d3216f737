package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/heartcare-app/heartcare-api/config"
	"github.com/heartcare-app/heartcare-api/models"
	"gorm.io/gorm"
)

// CreateContactRequest represents the request body for adding an emergency contact
type CreateContactRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Phone string `json:"phone" binding:"required,max=50"`
}

// ListEmergencyContacts handles GET /api/emergency-contacts/:id
func ListEmergencyContacts(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	contacts := []models.EmergencyContact{}
	if err := db.Where("user_id = ?", c.Param("id")).Order("id").Find(&contacts).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch emergency contacts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    contacts,
	})
}

// CreateEmergencyContact handles POST /api/emergency-contacts/:id
func CreateEmergencyContact(c *gin.Context) {
	userID := c.Param("id")

	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Name and phone are required.", err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	exists, err := userExists(db, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch user", err)
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found.", nil)
		return
	}

	contact := models.EmergencyContact{
		UserID: userID,
		Name:   req.Name,
		Phone:  req.Phone,
	}
	if err := db.Create(&contact).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add emergency contact", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Emergency contact added successfully!",
		"data":    contact,
	})
}

// DeleteEmergencyContact handles DELETE /api/emergency-contacts/:id/:contact_id
func DeleteEmergencyContact(c *gin.Context) {
	contactID, err := strconv.ParseUint(c.Param("contact_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONTACT_ID", "Contact id must be a positive integer", err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var contact models.EmergencyContact
	if err := db.Where("user_id = ? AND id = ?", c.Param("id"), contactID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found.", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete contact", err)
		return
	}

	if err := db.Delete(&contact).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete contact", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Contact deleted successfully.",
	})
}
