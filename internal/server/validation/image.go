package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxImageSize is 2048 KiB.
const DefaultMaxImageSize int64 = 2048 * 1024

var (
	allowedImageMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/svg+xml"}
	allowedImageExts  = []string{"jpeg", "png", "jpg", "gif", "svg"}
)

// Image checks an uploaded file under field and returns the sniffed MIME
// type. Failures are added to errs.
func Image(errs *Errors, field string, fh *multipart.FileHeader, maxSize int64) string {
	if fh == nil {
		errs.Add(field, fmt.Sprintf("The %s field is required.", field))
		return ""
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}

	f, err := fh.Open()
	if err != nil {
		errs.Add(field, fmt.Sprintf("The %s failed to upload.", field))
		return ""
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		errs.Add(field, fmt.Sprintf("The %s failed to upload.", field))
		return ""
	}

	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))

	if !strings.HasPrefix(contentType, "image/") {
		errs.Add(field, fmt.Sprintf("The %s must be an image.", field))
	}
	if !slices.Contains(allowedImageMIMEs, contentType) || !slices.Contains(allowedImageExts, ext) {
		errs.Add(field, fmt.Sprintf("The %s must be a file of type: %s.", field, strings.Join(allowedImageExts, ", ")))
	}
	if fh.Size > maxSize {
		errs.Add(field, fmt.Sprintf("The %s must not be greater than %d kilobytes.", field, maxSize/1024))
	}

	return contentType
}
