package pdf

import (
	"fmt"
	"os"
	"strings"
)

const mediaTypeOctetStream = "application/octet-stream"

// Validator handles upload and file checks that run before a document is opened
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// AcceptsFormat is the format gate. A document is accepted when its media
// type mentions PDF or is a generic byte stream, when its name has a .pdf
// extension, or when neither name nor type was supplied.
func (v *Validator) AcceptsFormat(name, mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	n := strings.ToLower(strings.TrimSpace(name))

	switch {
	case mt == "" && n == "":
		return true
	case strings.Contains(mt, "pdf"), mt == mediaTypeOctetStream:
		return true
	case strings.HasSuffix(n, ".pdf"):
		return true
	}
	return false
}

// ValidateSize checks an in-memory document against the size limit
func (v *Validator) ValidateSize(size int64) error {
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)
	}
	return nil
}

// ValidateFile checks that filePath is a non-empty regular file within the size limit
func (v *Validator) ValidateFile(filePath string) (os.FileInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", filePath)
	}

	if err := v.ValidateSize(fileInfo.Size()); err != nil {
		return nil, err
	}

	return fileInfo, nil
}
