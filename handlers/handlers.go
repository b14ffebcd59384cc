// Package handlers is the REST surface over the service layer
package handlers

import (
	"mediacat/auth"
	"mediacat/fault"
	"mediacat/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	etagHeader = "ETag"
)

type Handlers struct {
	svc *service.Service
	log *zap.Logger
}

func New(svc *service.Service, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

// Register adds every route to router. Sessions must already be set up.
func (h *Handlers) Register(router *gin.Engine) {
	router.Use(cacheControl(noCache))
	authRouter := &auth.Router{Base: router, DB: h.svc.DB()}

	// Users
	router.POST("/user/create", h.UserCreate)
	router.POST("/user/login", h.UserLogin)
	authRouter.POST("/user/logout", h.UserLogout)
	authRouter.GET("/user/status", h.UserStatus)
	// Catalogs
	authRouter.GET("/catalogs", h.CatalogList)
	authRouter.POST("/catalogs", h.CatalogCreate)
	authRouter.GET("/catalogs/:id", h.CatalogGet)
	authRouter.DELETE("/catalogs/:id", h.CatalogDelete)
	authRouter.POST("/catalogs/:id/grant", h.CatalogGrant)
	// Albums
	authRouter.GET("/catalogs/:id/albums", h.AlbumList)
	authRouter.POST("/catalogs/:id/albums", h.AlbumCreate)
	authRouter.GET("/albums/:id", h.AlbumGet)
	authRouter.PUT("/albums/:id", h.AlbumUpdate)
	authRouter.DELETE("/albums/:id", h.AlbumDelete)
	authRouter.GET("/albums/:id/descendants", h.AlbumDescendants)
	// Tags
	authRouter.GET("/catalogs/:id/tags", h.TagList)
	authRouter.POST("/catalogs/:id/tags", h.TagCreate)
	authRouter.POST("/catalogs/:id/tags/path", h.TagForPath)
	authRouter.GET("/tags/:id", h.TagGet)
	authRouter.PUT("/tags/:id", h.TagUpdate)
	authRouter.DELETE("/tags/:id", h.TagDelete)
	authRouter.GET("/tags/:id/descendants", h.TagDescendants)
	// People
	authRouter.GET("/catalogs/:id/people", h.PersonList)
	authRouter.POST("/catalogs/:id/people", h.PersonCreate)
	authRouter.POST("/catalogs/:id/people/lookup", h.PersonLookup)
	authRouter.GET("/people/:id", h.PersonGet)
	authRouter.PUT("/people/:id", h.PersonUpdate)
	authRouter.DELETE("/people/:id", h.PersonDelete)
	// Media
	authRouter.GET("/catalogs/:id/media", h.MediaList)
	authRouter.POST("/catalogs/:id/search", h.MediaSearch)
	authRouter.POST("/catalogs/:id/media", h.MediaCreate)
	authRouter.GET("/media/:id", h.MediaGet)
	authRouter.PUT("/media/:id", h.MediaUpdate)
	authRouter.DELETE("/media/:id", h.MediaDelete)
	authRouter.GET("/media/:id/thumb/:size", h.MediaThumbnail)
	authRouter.GET("/media/:id/download", h.MediaDownload)
	authRouter.GET("/media/:id/metadata", h.MetadataGet)
	authRouter.PATCH("/media/:id/metadata", h.MetadataPatch)
}

// fail responds with the status and name of the error kind
func (h *Handlers) fail(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	if kind.Status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response := gin.H{"error": kind.Name}
	if args := fault.ArgsOf(err); len(args) > 0 {
		response["args"] = args
	}
	c.JSON(kind.Status, response)
}

// badRequest reports a body or form that could not be bound
func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.fail(c, fault.ValidationFailure.New(fault.Args{"reason": err.Error()}))
}

func isNotModified(c *gin.Context, etag string) bool {
	// Set the current ETag in all cases
	c.Header("cache-control", "private, max-age="+strconv.Itoa(thumbCache))
	c.Header(etagHeader, etag)
	if c.Request.Header.Get("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
