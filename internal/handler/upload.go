package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/foliodev/folio/internal/storage"
)

const (
	// MaxUploadSize is the largest accepted image in bytes.
	MaxUploadSize = 10 << 20
	// DefaultUploadFolder is used when the form has no folder field.
	DefaultUploadFolder = "images"
)

// allowedImageTypes are matched against the sniffed content, never the
// client-declared type.
var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

var folderSegment = regexp.MustCompile(`^[a-z0-9_-]+$`)

// UploadHandler stores admin image uploads in object storage.
type UploadHandler struct {
	objects storage.ObjectStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewUploadHandler creates a new UploadHandler. objects may be nil, in which
// case every endpoint answers 503.
func NewUploadHandler(objects storage.ObjectStore, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{objects: objects, logger: logger, now: time.Now}
}

// uploadResponse describes a stored image.
type uploadResponse struct {
	URL          string `json:"url"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
}

// cleanFolder validates a slash-separated folder. Empty means the default.
func cleanFolder(folder string) (string, bool) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return DefaultUploadFolder, true
	}
	for _, seg := range strings.Split(folder, "/") {
		if !folderSegment.MatchString(seg) {
			return "", false
		}
	}
	return folder, true
}

// detectImage returns the content type and extension of data, or ok=false
// for anything that is not an allowed image.
func detectImage(data []byte) (contentType, ext string, ok bool) {
	mt := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, mt.Extension(), true
		}
	}
	return mt.String(), "", false
}

func (h *UploadHandler) objectName(folder, ext string) string {
	return fmt.Sprintf("%s/%d-%s%s", folder, h.now().UnixMilli(), uuid.NewString()[:8], ext)
}

func (h *UploadHandler) configured(w http.ResponseWriter) bool {
	if h.objects == nil {
		writeError(w, http.StatusServiceUnavailable, storage.ErrNotConfigured.Error())
		return false
	}
	return true
}

// UploadImage stores a multipart image.
// POST /api/admin/upload/image
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File too large, maximum size is 10MB")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	folder, ok := cleanFolder(r.FormValue("folder"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid folder name")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) > MaxUploadSize {
		writeError(w, http.StatusBadRequest, "File too large, maximum size is 10MB")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	contentType, ext, ok := detectImage(data)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unsupported file type, allowed: JPEG, PNG, GIF, WebP, SVG",
			map[string]interface{}{"detected": contentType})
		return
	}

	name := h.objectName(folder, ext)
	url, err := h.objects.Put(r.Context(), name, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		h.logger.Error("image upload failed", "object", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Image upload failed, please try again later")
		return
	}
	h.logger.Info("image uploaded", "object", name, "size", len(data), "content_type", contentType)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Image uploaded",
		"data": uploadResponse{
			URL:          url,
			FileName:     path.Base(name),
			OriginalName: header.Filename,
			Size:         int64(len(data)),
			ContentType:  contentType,
		},
	})
}

type deleteImageRequest struct {
	URL string `json:"url"`
}

// DeleteImage removes an object of the configured bucket by its public URL.
// POST /api/admin/upload/delete
func (h *UploadHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	var req deleteImageRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "Image URL is required")
		return
	}

	name, err := h.objects.ObjectName(req.URL)
	if err != nil {
		if errors.Is(err, storage.ErrForeignObject) {
			writeError(w, http.StatusBadRequest, "Cannot delete this image")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid image URL")
		return
	}
	if err := h.objects.Delete(r.Context(), name); err != nil {
		h.logger.Error("image delete failed", "object", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Image delete failed, please try again later")
		return
	}
	h.logger.Info("image deleted", "object", name)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Image deleted"})
}

// FixPolicy re-applies the public-read bucket policy.
// POST /api/admin/upload/fix-policy
func (h *UploadHandler) FixPolicy(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	if err := h.objects.EnsurePublic(r.Context()); err != nil {
		h.logger.Error("bucket policy update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update bucket policy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Bucket policy set to public read"})
}
