package handlers

import (
	"bytes"
	"mediacat/fault"
	"mediacat/models"
	"mediacat/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	payloadField = "file"
	dataField    = "data"
)

type SearchRequest struct {
	Filters []service.Filter `json:"filters" binding:"dive"`
}

// mediaRequest reads a media body. Multipart requests carry the payload
// in "file" and the JSON input in "data", anything else is plain JSON.
func mediaRequest(c *gin.Context) (in service.MediaInput, p *service.Payload, cleanup func(), err error) {
	cleanup = func() {}
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		err = c.ShouldBindJSON(&in)
		return
	}
	if data := c.PostForm(dataField); data != "" {
		if err = binding.JSON.BindBody([]byte(data), &in); err != nil {
			return
		}
	}
	header, ferr := c.FormFile(payloadField)
	if ferr == http.ErrMissingFile {
		return
	} else if ferr != nil {
		err = ferr
		return
	}
	f, err := header.Open()
	if err != nil {
		return
	}
	cleanup = func() { f.Close() }
	p = &service.Payload{Reader: f, Filename: header.Filename}
	return
}

func (h *Handlers) MediaList(c *gin.Context, user *models.User) {
	media, err := h.svc.SearchMedia(user, c.Param("id"), nil)
	respond(h, c, media, err)
}

func (h *Handlers) MediaSearch(c *gin.Context, user *models.User) {
	r := SearchRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		h.badRequest(c, err)
		return
	}
	media, err := h.svc.SearchMedia(user, c.Param("id"), r.Filters)
	respond(h, c, media, err)
}

func (h *Handlers) MediaCreate(c *gin.Context, user *models.User) {
	in, p, cleanup, err := mediaRequest(c)
	defer cleanup()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	media, err := h.svc.CreateMedia(c.Request.Context(), user, c.Param("id"), in, p)
	respond(h, c, media, err)
}

func (h *Handlers) MediaGet(c *gin.Context, user *models.User) {
	media, err := h.svc.GetMedia(user, c.Param("id"))
	respond(h, c, media, err)
}

func (h *Handlers) MediaUpdate(c *gin.Context, user *models.User) {
	in, p, cleanup, err := mediaRequest(c)
	defer cleanup()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	media, err := h.svc.UpdateMedia(c.Request.Context(), user, c.Param("id"), in, p)
	respond(h, c, media, err)
}

func (h *Handlers) MediaDelete(c *gin.Context, user *models.User) {
	h.deleted(c, h.svc.DeleteMedia(c.Request.Context(), user, c.Param("id")))
}

func (h *Handlers) MediaThumbnail(c *gin.Context, user *models.User) {
	size, err := strconv.Atoi(c.Param("size"))
	if err != nil {
		h.fail(c, fault.ValidationFailure.New(fault.Args{"size": c.Param("size")}))
		return
	}
	media, err := h.svc.GetMedia(user, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if isNotModified(c, media.StorageID) {
		return
	}
	var buf bytes.Buffer
	if _, err := h.svc.Thumbnail(c.Request.Context(), user, media.ID, size, &buf); err != nil {
		c.Header(etagHeader, "")
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

func (h *Handlers) MediaDownload(c *gin.Context, user *models.User) {
	loc, err := h.svc.Download(c.Request.Context(), user, c.Param("id"), c.Query("variant"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if loc.URL != "" {
		// Redirect to the signed remote location
		c.Redirect(http.StatusFound, loc.URL)
		return
	}
	c.Header("content-type", loc.MimeType)
	c.FileAttachment(loc.Path, loc.Filename)
}

func (h *Handlers) MetadataGet(c *gin.Context, user *models.User) {
	values, err := h.svc.GetMetadata(user, c.Param("id"))
	respond(h, c, values, err)
}

func (h *Handlers) MetadataPatch(c *gin.Context, user *models.User) {
	values := map[string]any{}
	if err := c.ShouldBindJSON(&values); err != nil {
		h.badRequest(c, err)
		return
	}
	values, err := h.svc.PatchMetadata(user, c.Param("id"), values)
	respond(h, c, values, err)
}
