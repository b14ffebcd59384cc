package auth

import (
	"mediacat/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userIdKey = "id"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginUser(user *models.User) error {
	s.Set(userIdKey, user.ID)
	return s.Save()
}

func (s *Session) LogoutUser() {
	s.Delete(userIdKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}

// User loads the logged in user. The ID is empty when there is none.
func (s *Session) User(tx *gorm.DB) (user models.User) {
	id, ok := s.Get(userIdKey).(string)
	if !ok || id == "" {
		return
	}
	if tx.First(&user, "id = ?", id).Error != nil {
		return models.User{}
	}
	return
}
