package http

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ochronus/gofileup/internal/app"
	"github.com/ochronus/gofileup/internal/config"
	"github.com/ochronus/gofileup/internal/services/gofile"
	"github.com/ochronus/gofileup/internal/upload"
	"github.com/sirupsen/logrus"
)

// Handler contains the HTTP handlers that trigger uploads.
type Handler struct {
	config   *config.Config
	uploader *upload.Uploader
	logger   *logrus.Logger
}

// UploadRequest is the body of POST /upload.
type UploadRequest struct {
	Path string `json:"path" binding:"required"`
}

// UploadResponse is returned for a completed upload.
type UploadResponse struct {
	DownloadPage string `json:"download_page"`
	Path         string `json:"path"`
}

// NewHandler creates a new HTTP handler.
func NewHandler(container *app.Container) *Handler {
	return &Handler{
		config:   container.Config,
		uploader: container.Uploader,
		logger:   container.Logger,
	}
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Upload uploads the requested local path and returns its download page.
// The request context doubles as the canceller, so a client that hangs up
// before the transfer starts gets nothing uploaded.
func (h *Handler) Upload(c *gin.Context) {
	if h.config.AuthEnabled() && !h.validateUser(c) {
		c.Header("WWW-Authenticate", `Basic realm="gofileup"`)
		c.Status(http.StatusUnauthorized)
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	result, err := h.uploader.Cancellable(upload.ContextCanceller(ctx)).Upload(ctx, req.Path)
	if err != nil {
		h.logger.Errorf("[%s]: upload failed: %v", req.Path, err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	if result.Cancelled() {
		c.JSON(http.StatusAccepted, gin.H{"status": "cancelled", "path": result.Path})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		DownloadPage: result.DownloadPage,
		Path:         result.Path,
	})
}

func statusForError(err error) int {
	var remote *gofile.RemoteError
	switch {
	case errors.As(err, &remote):
		return http.StatusBadGateway
	case errors.Is(err, gofile.ErrNoServerAvailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// validateUser validates the Basic Auth credentials.
func (h *Handler) validateUser(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return false
	}

	if !strings.HasPrefix(authHeader, "Basic ") {
		return false
	}

	encoded := strings.TrimPrefix(authHeader, "Basic ")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(parts[0]), []byte(h.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(parts[1]), []byte(h.config.Password)) == 1
	return userOK && passOK
}
