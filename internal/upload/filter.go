// Package upload validates incoming picture uploads before anything is
// persisted. Validation is all-or-nothing: one bad file rejects the batch.
package upload

import (
	"mime/multipart"
	"strings"

	"github.com/oakwell/treeaid/internal/apperror"
)

// File describes a stored upload handed to the repository layer.
type File struct {
	Filename   string
	MimeType   string
	StorageKey string
}

// IsImage reports whether a declared mime-type is acceptable for a tree
// picture. The check matches any image/* subtype.
func IsImage(mimeType string) bool {
	return strings.Contains(mimeType, "image")
}

// ValidateImages rejects the whole batch when any entry declares a
// non-image mime-type. A valid empty batch passes; callers that require at
// least one picture enforce that themselves.
func ValidateImages(headers []*multipart.FileHeader) error {
	for _, h := range headers {
		if !IsImage(h.Header.Get("Content-Type")) {
			return apperror.ValidationFailed("picture", "included non-image file: "+h.Filename)
		}
	}
	return nil
}
