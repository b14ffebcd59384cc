package handlers

import (
	"mediacat/models"
	"mediacat/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TagPathRequest struct {
	Path     []string `json:"path" binding:"required"`
	MatchAny *bool    `json:"match_any"`
}

type PersonLookupRequest struct {
	Name string `json:"name" binding:"required"`
}

// respond writes result, or the error when there is one
func respond[T any](h *Handlers, c *gin.Context, result T, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) deleted(c *gin.Context, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": ""})
}

func (h *Handlers) AlbumList(c *gin.Context, user *models.User) {
	albums, err := h.svc.ListAlbums(user, c.Param("id"))
	respond(h, c, albums, err)
}

func (h *Handlers) AlbumCreate(c *gin.Context, user *models.User) {
	r := service.AlbumInput{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	album, err := h.svc.CreateAlbum(user, c.Param("id"), r)
	respond(h, c, album, err)
}

func (h *Handlers) AlbumGet(c *gin.Context, user *models.User) {
	album, err := h.svc.GetAlbum(user, c.Param("id"))
	respond(h, c, album, err)
}

func (h *Handlers) AlbumUpdate(c *gin.Context, user *models.User) {
	r := service.AlbumInput{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	album, err := h.svc.UpdateAlbum(user, c.Param("id"), r)
	respond(h, c, album, err)
}

func (h *Handlers) AlbumDelete(c *gin.Context, user *models.User) {
	h.deleted(c, h.svc.DeleteAlbum(user, c.Param("id")))
}

func (h *Handlers) AlbumDescendants(c *gin.Context, user *models.User) {
	albums, err := h.svc.AlbumDescendants(user, c.Param("id"))
	respond(h, c, albums, err)
}

func (h *Handlers) TagList(c *gin.Context, user *models.User) {
	tags, err := h.svc.ListTags(user, c.Param("id"))
	respond(h, c, tags, err)
}

func (h *Handlers) TagCreate(c *gin.Context, user *models.User) {
	r := service.TagInput{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	tag, err := h.svc.CreateTag(user, c.Param("id"), r)
	respond(h, c, tag, err)
}

func (h *Handlers) TagForPath(c *gin.Context, user *models.User) {
	r := TagPathRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	tag, err := h.svc.TagForPath(user, c.Param("id"), r.Path, r.MatchAny)
	respond(h, c, tag, err)
}

func (h *Handlers) TagGet(c *gin.Context, user *models.User) {
	tag, err := h.svc.GetTag(user, c.Param("id"))
	respond(h, c, tag, err)
}

func (h *Handlers) TagUpdate(c *gin.Context, user *models.User) {
	r := service.TagInput{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	tag, err := h.svc.UpdateTag(user, c.Param("id"), r)
	respond(h, c, tag, err)
}

func (h *Handlers) TagDelete(c *gin.Context, user *models.User) {
	h.deleted(c, h.svc.DeleteTag(user, c.Param("id")))
}

func (h *Handlers) TagDescendants(c *gin.Context, user *models.User) {
	tags, err := h.svc.TagDescendants(user, c.Param("id"))
	respond(h, c, tags, err)
}

func (h *Handlers) PersonList(c *gin.Context, user *models.User) {
	people, err := h.svc.ListPeople(user, c.Param("id"))
	respond(h, c, people, err)
}

func (h *Handlers) PersonCreate(c *gin.Context, user *models.User) {
	r := service.PersonInput{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	person, err := h.svc.CreatePerson(user, c.Param("id"), r)
	respond(h, c, person, err)
}

func (h *Handlers) PersonLookup(c *gin.Context, user *models.User) {
	r := PersonLookupRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	person, err := h.svc.PersonForName(user, c.Param("id"), r.Name)
	respond(h, c, person, err)
}

func (h *Handlers) PersonGet(c *gin.Context, user *models.User) {
	person, err := h.svc.GetPerson(user, c.Param("id"))
	respond(h, c, person, err)
}

func (h *Handlers) PersonUpdate(c *gin.Context, user *models.User) {
	r := service.PersonInput{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	person, err := h.svc.UpdatePerson(user, c.Param("id"), r)
	respond(h, c, person, err)
}

func (h *Handlers) PersonDelete(c *gin.Context, user *models.User) {
	h.deleted(c, h.svc.DeletePerson(user, c.Param("id")))
}
