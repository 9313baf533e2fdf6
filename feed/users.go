package feed

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jlin-dev/feedstream/models"
)

// LookupUser resolves an opaque user id to its stored row. An unknown id
// wraps ErrUserNotFound.
func LookupUser(db *gorm.DB, userID string) (models.User, error) {
	var user models.User
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return models.User{}, err
	}
	return user, nil
}
