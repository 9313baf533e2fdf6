package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jlin-dev/feedstream/feed"
	"github.com/jlin-dev/feedstream/global"
	"github.com/jlin-dev/feedstream/utils"
)

// ResolveUser loads the user named by the :userId path parameter and stores
// it in the request context. Possession of a valid opaque id is the entire
// access model: an unknown or malformed id is a 404, everything else passes.
func ResolveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if !utils.IsUserID(userID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		user, err := feed.LookupUser(global.DB, userID)
		if err != nil {
			if errors.Is(err, feed.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
