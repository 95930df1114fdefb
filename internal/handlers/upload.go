package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/backend"
)

// UploadHandler stores chat attachments in the backend's blob store.
type UploadHandler struct {
	client   backend.Client
	maxBytes int64
}

// NewUploadHandler builds an UploadHandler. maxBytes caps the accepted
// file size.
func NewUploadHandler(client backend.Client, maxBytes int64) *UploadHandler {
	return &UploadHandler{client: client, maxBytes: maxBytes}
}

// Upload accepts a multipart file and returns the blob's public URL
// together with the metadata the client embeds in the message.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID := c.GetString("userID")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxBytes)})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read file"})
		return
	}
	if int64(len(data)) > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxBytes)})
		return
	}

	name := fmt.Sprintf("%s_%d%s", userID, time.Now().UnixNano(), filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	url, err := h.client.UploadBlob(c.Request.Context(), backend.BucketChatFiles, name, data, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":       url,
		"file_name": file.Filename,
		"file_size": int64(len(data)),
	})
}

// Serve streams a stored blob back to the client.
func (h *UploadHandler) Serve(c *gin.Context) {
	bucket := c.Param("bucket")
	name := c.Param("name")

	data, contentType, err := h.client.GetBlob(c.Request.Context(), bucket, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
