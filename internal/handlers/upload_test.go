package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/backend"
)

func setupUploadRouter(handler *UploadHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "agent-1")
		c.Next()
	})
	r.POST("/uploads", handler.Upload)
	r.GET("/files/:bucket/:name", handler.Serve)
	return r
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadAndServeRoundTrip(t *testing.T) {
	mem := backend.NewMemory(nil)
	handler := NewUploadHandler(mem, 1<<20)
	router := setupUploadRouter(handler)

	body, contentType := multipartBody(t, "file", "report.pdf", "pdf-bytes")
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		URL      string `json:"url"`
		FileName string `json:"file_name"`
		FileSize int64  `json:"file_size"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "report.pdf", resp.FileName)
	assert.Equal(t, int64(len("pdf-bytes")), resp.FileSize)
	require.NotEmpty(t, resp.URL)

	name := resp.URL[strings.LastIndex(resp.URL, "/")+1:]
	getReq := httptest.NewRequest(http.MethodGet, "/files/"+backend.BucketChatFiles+"/"+name, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)

	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, "pdf-bytes", getRec.Body.String())
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	mem := backend.NewMemory(nil)
	handler := NewUploadHandler(mem, 4)
	router := setupUploadRouter(handler)

	body, contentType := multipartBody(t, "file", "big.bin", "way too large")
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServeUnknownFile(t *testing.T) {
	handler := NewUploadHandler(backend.NewMemory(nil), 1<<20)
	router := setupUploadRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/files/chat-files/missing.bin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
