package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jlin-dev/feedstream/global"
	"github.com/jlin-dev/feedstream/models"
	"github.com/jlin-dev/feedstream/utils"
)

const createUserMaxAttempts = 3

// CreateUser issues a fresh opaque user id. The id is the user's only
// credential, so the response tells them to keep it.
func CreateUser(c *gin.Context) {
	var user models.User

	for attempt := 0; attempt < createUserMaxAttempts; attempt++ {
		userID, err := utils.NewUserID()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		user = models.User{
			UserID: userID,
			Preferences: models.Preferences{
				MaxItems: models.DefaultMaxItems,
				MaxDays:  models.DefaultMaxDays,
			},
		}
		if err := global.DB.Create(&user).Error; err == nil {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"userId":  user.UserID,
				"message": "Please save this ID - you will need it to access your feeds",
			})
			return
		}
		// Unique collision on the generated id is the only retryable case;
		// roll a new id and try again.
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user after multiple attempts"})
}

// UpdatePreferences persists new timeline preferences for the user. Values
// outside the legal ranges are clamped, not rejected.
func UpdatePreferences(c *gin.Context) {
	user := currentUser(c)

	var input models.Preferences
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs := input.Clamp()
	err := global.DB.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"pref_max_items": prefs.MaxItems,
			"pref_max_days":  prefs.MaxDays,
		}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	invalidateTimelineCache(user.UserID)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"preferences": prefs,
	})
}
