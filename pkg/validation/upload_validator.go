package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "geosismica/internal/errors"
)

// DefaultAllowedExtensions are the image types accepted by the upload control.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg"}

// UploadValidator enforces the file type allow-list and the size ceiling
type UploadValidator struct {
	allowedExtensions []string
	maxSize           int64
}

// NewUploadValidator creates a validator for the default extensions
func NewUploadValidator(maxSize int64) *UploadValidator {
	return &UploadValidator{
		allowedExtensions: DefaultAllowedExtensions,
		maxSize:           maxSize,
	}
}

// AllowedExtensions returns the accepted extensions without the leading dot.
func (v *UploadValidator) AllowedExtensions() []string {
	return v.allowedExtensions
}

// AcceptAttribute renders the allow-list for an <input type="file" accept=...>.
func (v *UploadValidator) AcceptAttribute() string {
	exts := make([]string, len(v.allowedExtensions))
	for i, ext := range v.allowedExtensions {
		exts[i] = "." + ext
	}
	return strings.Join(exts, ",")
}

// ValidateFilename rejects names whose extension is not in the allow-list.
func (v *UploadValidator) ValidateFilename(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(filename))), ".")
	if ext == "" {
		return apperrors.NewValidationError("El archivo no tiene extensión; se aceptan PNG / JPG", nil)
	}
	if !contains(v.allowedExtensions, ext) {
		return apperrors.NewValidationError(
			fmt.Sprintf("Tipo de archivo no permitido (.%s); se aceptan PNG / JPG", ext), nil)
	}
	return nil
}

// ValidateSize rejects empty files and files above the ceiling.
func (v *UploadValidator) ValidateSize(size int64) error {
	if size <= 0 {
		return apperrors.NewValidationError("El archivo está vacío", nil)
	}
	if v.maxSize > 0 && size > v.maxSize {
		return apperrors.NewValidationError(
			fmt.Sprintf("El archivo supera el tamaño máximo permitido (%d MB)", v.maxSize/(1024*1024)), nil)
	}
	return nil
}

// Validate runs both checks, filename first.
func (v *UploadValidator) Validate(filename string, size int64) error {
	if err := v.ValidateFilename(filename); err != nil {
		return err
	}
	return v.ValidateSize(size)
}
