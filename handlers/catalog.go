package handlers

import (
	"mediacat/models"
	"mediacat/storage"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CatalogCreateRequest struct {
	Name string `json:"name" binding:"required"`
	// Empty selects the configured default storage
	StorageType storage.Type        `json:"storage_type"`
	Storage     *storage.Descriptor `json:"storage"`
}

type GrantRequest struct {
	Email     string `json:"email" binding:"required"`
	CanModify bool   `json:"can_modify"`
}

func (h *Handlers) CatalogList(c *gin.Context, user *models.User) {
	catalogs, err := h.svc.ListCatalogs(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogs)
}

func (h *Handlers) CatalogCreate(c *gin.Context, user *models.User) {
	r := CatalogCreateRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	var d *storage.Descriptor
	if r.StorageType != "" {
		d = &storage.Descriptor{}
		if r.Storage != nil {
			d = r.Storage
		}
		d.Type = r.StorageType
	}
	catalog, err := h.svc.CreateCatalog(user, r.Name, d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (h *Handlers) CatalogGet(c *gin.Context, user *models.User) {
	catalog, err := h.svc.GetCatalog(user, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (h *Handlers) CatalogDelete(c *gin.Context, user *models.User) {
	if err := h.svc.DeleteCatalog(c.Request.Context(), user, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": ""})
}

func (h *Handlers) CatalogGrant(c *gin.Context, user *models.User) {
	r := GrantRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.svc.Grant(user, c.Param("id"), r.Email, r.CanModify); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": ""})
}
