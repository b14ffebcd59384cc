package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mediacat/db/dbtest"
	"mediacat/models"
	"mediacat/processing"
	"mediacat/service"
	"mediacat/storage"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type exifRunner struct{}

func (exifRunner) Run(context.Context, time.Duration, string, ...string) ([]byte, error) {
	return []byte(`[{"MIMEType": "image/jpeg", "ImageWidth": 500, "ImageHeight": 331}]`), nil
}

type fixedStores struct {
	store storage.FileStore
}

func (s fixedStores) Open(context.Context, storage.Descriptor) (storage.FileStore, error) {
	return s.store, nil
}

type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func setup(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := dbtest.Open(t)
	require.NoError(t, models.Migrate(gdb))

	stores := fixedStores{storage.NewLocalStore(t.TempDir())}
	log := zap.NewNop()
	proc := processing.NewProcessor(gdb, stores, exifRunner{}, log)
	svc := service.New(gdb, stores, processing.NewQueue(proc, 1, true, log), 0, log)

	router := gin.New()
	router.Use(ErrorLogMiddleware(log))
	router.Use(sessions.Sessions("token", cookie.NewStore([]byte("test session key"))))
	New(svc, log).Register(router)
	return &client{t: t, router: router}
}

func (cl *client) do(method, path, contentType string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	cl.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.router.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		cl.cookies = cookies
	}
	return rec
}

func (cl *client) json(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()
	data, err := json.Marshal(body)
	require.NoError(cl.t, err)
	return cl.do(method, path, "application/json", bytes.NewReader(data))
}

func (cl *client) form(path string, values url.Values) *httptest.ResponseRecorder {
	cl.t.Helper()
	return cl.do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	result := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	return result
}

func (cl *client) login() {
	cl.t.Helper()
	rec := cl.form("/user/create", url.Values{"name": {"Owner"}, "email": {"owner@example.com"}, "password": {"secret"}})
	require.Equal(cl.t, http.StatusOK, rec.Code, rec.Body.String())
	rec = cl.form("/user/login", url.Values{"email": {"owner@example.com"}, "password": {"secret"}})
	require.Equal(cl.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (cl *client) createCatalog() string {
	cl.t.Helper()
	rec := cl.json(http.MethodPost, "/catalogs", gin.H{"name": "Family", "storage_type": "server"})
	require.Equal(cl.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(cl.t, rec)["id"].(string)
}

func (cl *client) upload(catalogID string) string {
	cl.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(cl.t, w.WriteField("data", `{"metadata": {"title": "Beach"}}`))
	part, err := w.CreateFormFile("file", "photo.jpg")
	require.NoError(cl.t, err)
	require.NoError(cl.t, imaging.Encode(part, imaging.New(500, 331, image.White.C), imaging.JPEG))
	require.NoError(cl.t, w.Close())

	rec := cl.do(http.MethodPost, "/catalogs/"+catalogID+"/media", w.FormDataContentType(), &body)
	require.Equal(cl.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(cl.t, rec)["id"].(string)
}

func TestLogin(t *testing.T) {
	cl := setup(t)
	rec := cl.do(http.MethodGet, "/catalogs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = cl.form("/user/create", url.Values{"name": {"Owner"}, "email": {"owner@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = cl.form("/user/login", url.Values{"email": {"owner@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "login-failed", decode(t, rec)["error"])
	rec = cl.form("/user/login", url.Values{"email": {"owner@example.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = cl.form("/user/login", url.Values{"email": {"owner@example.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = cl.do(http.MethodGet, "/user/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = cl.do(http.MethodPost, "/user/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = cl.do(http.MethodGet, "/user/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMediaRoutes(t *testing.T) {
	cl := setup(t)
	cl.login()
	catalogID := cl.createCatalog()
	mediaID := cl.upload(catalogID)

	rec := cl.do(http.MethodGet, "/media/"+mediaID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	media := decode(t, rec)
	assert.Equal(t, "Beach", media["metadata"].(map[string]any)["title"])
	assert.Equal(t, "photo.jpg", media["metadata"].(map[string]any)["filename"])

	rec = cl.do(http.MethodGet, "/media/"+mediaID+"/thumb/170", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get(etagHeader)
	require.NotEmpty(t, etag)
	img, _, err := image.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 170, img.Bounds().Dx())

	rec = cl.do(http.MethodGet, "/media/"+mediaID+"/thumb/170", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	rec = cl.do(http.MethodGet, "/media/"+mediaID+"/thumb/big", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = cl.do(http.MethodGet, "/media/"+mediaID+"/download", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "photo.jpg")
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	rec = cl.json(http.MethodPatch, "/media/"+mediaID+"/metadata", gin.H{"city": "Portland"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Portland", decode(t, rec)["city"])

	rec = cl.do(http.MethodGet, "/catalogs/"+catalogID+"/media", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = cl.do(http.MethodDelete, "/media/"+mediaID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = cl.do(http.MethodGet, "/media/"+mediaID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", decode(t, rec)["error"])
}

func TestEntityRoutes(t *testing.T) {
	cl := setup(t)
	cl.login()
	catalogID := cl.createCatalog()

	rec := cl.json(http.MethodPost, "/catalogs/"+catalogID+"/tags/path", gin.H{"path": []string{"animals", "dog"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dog := decode(t, rec)
	assert.Equal(t, "dog", dog["name"])

	rec = cl.json(http.MethodPost, "/catalogs/"+catalogID+"/tags/path", gin.H{"path": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = cl.json(http.MethodPost, "/catalogs/"+catalogID+"/people/lookup", gin.H{"name": "Alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	alice := decode(t, rec)["id"].(string)

	rec = cl.json(http.MethodPost, "/catalogs/"+catalogID+"/search", gin.H{"filters": []gin.H{
		{"field": "person", "modifier": "descendant", "value": alice},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation-failure", decode(t, rec)["error"])

	rec = cl.json(http.MethodPost, "/catalogs/"+catalogID+"/search", gin.H{"filters": []gin.H{
		{"field": "person", "value": alice},
	}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = cl.json(http.MethodPost, "/catalogs/"+catalogID+"/albums", gin.H{"name": "Trips"})
	require.Equal(t, http.StatusOK, rec.Code)
	trips := decode(t, rec)["id"].(string)
	rec = cl.json(http.MethodPost, "/catalogs/"+catalogID+"/albums", gin.H{"name": "trips"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid-name", decode(t, rec)["error"])

	rec = cl.do(http.MethodDelete, "/albums/"+trips, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = cl.do(http.MethodGet, "/albums/"+trips, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
