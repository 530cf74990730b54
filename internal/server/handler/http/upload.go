package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes bounds an upload when UploadHandler.MaxBytes is zero.
const DefaultMaxUploadBytes = 5 << 20

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler stores image uploads in Dir and hands back their public URL.
type UploadHandler struct {
	// Dir is where files are written; it is created on demand.
	Dir string
	// PublicURL prefixes the returned /uploads/<name> URL.
	PublicURL string
	MaxBytes  int64
	Log       *zap.Logger
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

func (h *UploadHandler) maxBytes() int64 {
	if h.MaxBytes > 0 {
		return h.MaxBytes
	}
	return DefaultMaxUploadBytes
}

// Upload handles POST /api/uploads with a multipart "file" field.
// Only PNG, JPEG, GIF and WebP images are accepted, detected by content.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBytes() {
		writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())
	if err := r.ParseMultipartForm(h.maxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	head = head[:n]
	ctype, _, _ := strings.Cut(http.DetectContentType(head), ";")
	ext, ok := imageExt[ctype]
	if !ok {
		writeError(w, http.StatusUnsupportedMediaType, "only image uploads are allowed")
		return
	}

	name := uuid.NewString() + ext
	if err := h.save(name, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: "file uploaded",
		URL:     strings.TrimRight(h.PublicURL, "/") + "/uploads/" + name,
	})
}

func (h *UploadHandler) save(name string, src io.Reader) error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(h.Dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}
