package handlers

import (
	"mediacat/auth"
	"mediacat/fault"
	"mediacat/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserCreateRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type UserLoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *Handlers) UserCreate(c *gin.Context) {
	r := UserCreateRequest{}
	if err := c.ShouldBindWith(&r, binding.Form); err != nil {
		h.badRequest(c, err)
		return
	}
	user, err := models.UserCreate(h.svc.DB(), r.Name, r.Email, r.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "user": user})
}

func (h *Handlers) UserLogin(c *gin.Context) {
	r := UserLoginRequest{}
	if err := c.ShouldBindWith(&r, binding.Form); err != nil {
		h.badRequest(c, err)
		return
	}
	user, err := models.UserLogin(h.svc.DB(), r.Email, r.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := auth.LoadSession(c).LoginUser(&user); err != nil {
		h.fail(c, fault.ServerError.Wrap(err, nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "user": user})
}

func (h *Handlers) UserLogout(c *gin.Context, _ *models.User) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, gin.H{"error": ""})
}

func (h *Handlers) UserStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, gin.H{"error": "", "user": user})
}
