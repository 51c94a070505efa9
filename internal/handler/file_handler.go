package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/packlane/packlane/internal/filestore"
	"github.com/packlane/packlane/internal/pkg/response"
)

type FileHandler struct {
	store   filestore.Store
	maxSize int64
}

type UploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

func NewFileHandler(store filestore.Store, maxSize int64) *FileHandler {
	return &FileHandler{store: store, maxSize: maxSize}
}

func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file is required")
		return
	}
	if h.maxSize > 0 && file.Size > h.maxSize {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to open file")
		return
	}
	reader, contentType, err := sniffContentType(opened)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to read file")
		return
	}
	defer reader.Close()

	key := buildFileKey(getUserID(c), file.Filename)
	if err := h.store.Save(c.Request.Context(), key, reader, file.Size); err != nil {
		response.Error(c, http.StatusInternalServerError, "upload_failed", "failed to upload file")
		return
	}
	response.Success(c, UploadResponse{
		URL:         h.store.URL(key, requestBaseURL(c)),
		Key:         key,
		Name:        file.Filename,
		ContentType: contentType,
	})
}

func (h *FileHandler) Get(c *gin.Context) {
	if h.store.Type() != "local" {
		c.Status(http.StatusNotFound)
		return
	}
	key := c.Param("key")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") {
		c.Status(http.StatusBadRequest)
		return
	}
	file, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	_, _ = file.Seek(0, io.SeekStart)
	_, _ = io.Copy(c.Writer, file)
}

func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

func sniffContentType(file filestore.ReadSeekCloser) (filestore.ReadSeekCloser, string, error) {
	buf := make([]byte, 512)
	read, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	contentType := http.DetectContentType(buf[:read])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}
	return file, contentType, nil
}

func buildFileKey(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := randomHex(8)
	if userID != "" {
		base = userID + "_" + base
	}
	if ext == "" {
		return base
	}
	return base + ext
}

func randomHex(size int) string {
	if size <= 0 {
		return ""
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
