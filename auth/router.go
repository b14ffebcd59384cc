package auth

import (
	"mediacat/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// User is logged in
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper class that adds auth checks + User pre-loading.
// Catalog permissions are checked by the service layer.
type Router struct {
	Base gin.IRouter
	DB   *gorm.DB
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc) {
	user := LoadSession(c).User(cr.DB)
	if user.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
		return
	}
	handler(c, &user)
}

func (cr *Router) wrap(handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cr.baseExec(c, handler)
	}
}

func (cr *Router) GET(path string, handler HandlerFunc) {
	cr.Base.GET(path, cr.wrap(handler))
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, cr.wrap(handler))
}

func (cr *Router) PUT(path string, handler HandlerFunc) {
	cr.Base.PUT(path, cr.wrap(handler))
}

func (cr *Router) PATCH(path string, handler HandlerFunc) {
	cr.Base.PATCH(path, cr.wrap(handler))
}

func (cr *Router) DELETE(path string, handler HandlerFunc) {
	cr.Base.DELETE(path, cr.wrap(handler))
}
