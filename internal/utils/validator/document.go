// Package validator checks uploads before they are sent to the
// translation pipeline. Only PDFs are accepted.
package validator

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jordaandigi/pdflingo/pkg/logger"
)

const pdfMimeType = "application/pdf"

// DocumentValidator validates uploaded PDFs.
type DocumentValidator struct {
	logger logger.Logger
	config *Config
}

// Config bounds accepted uploads.
type Config struct {
	MaxFileSize  int64 // bytes
	MaxPageCount int
}

// ValidationResult is the outcome of validating one upload.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

// ValidationError names one rejected property of the upload.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// FileInfo describes the upload as parsed.
type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Pages     int    `json:"pages,omitempty"`
}

func NewDocumentValidator(log logger.Logger, config *Config) *DocumentValidator {
	if config == nil {
		config = &Config{
			MaxFileSize:  50 * 1024 * 1024,
			MaxPageCount: 1000,
		}
	}

	return &DocumentValidator{
		logger: log,
		config: config,
	}
}

// ValidateFile checks extension, size, sniffed content type and PDF
// structure. Page count is filled in when the PDF parses.
func (v *DocumentValidator) ValidateFile(filename string, content []byte) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
		Errors:  make([]ValidationError, 0),
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      int64(len(content)),
			Extension: strings.ToLower(filepath.Ext(filename)),
			MimeType:  detectMimeType(content),
		},
	}

	if result.FileInfo.Extension != ".pdf" {
		result.fail(ValidationError{
			Code:    "INVALID_FILE_TYPE",
			Message: fmt.Sprintf("file type %s is not allowed, only PDF is supported", result.FileInfo.Extension),
			Field:   "extension",
		})
	}

	if result.FileInfo.Size == 0 {
		result.fail(ValidationError{
			Code:    "EMPTY_FILE",
			Message: "file is empty",
			Field:   "size",
		})
		return result
	}

	if result.FileInfo.Size > v.config.MaxFileSize {
		result.fail(ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file size exceeds maximum of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
	}

	if result.FileInfo.MimeType != pdfMimeType {
		result.fail(ValidationError{
			Code:    "INVALID_MIME_TYPE",
			Message: fmt.Sprintf("content type %s does not match a PDF", result.FileInfo.MimeType),
			Field:   "mimeType",
		})
		return result
	}

	pages, err := pageCount(content)
	if err != nil {
		v.logger.Warn("Upload failed PDF parse",
			logger.String("filename", filename),
			logger.Error(err),
		)
		result.fail(ValidationError{
			Code:    "INVALID_PDF",
			Message: "file could not be parsed as a PDF",
			Field:   "content",
		})
		return result
	}
	result.FileInfo.Pages = pages

	if v.config.MaxPageCount > 0 && pages > v.config.MaxPageCount {
		result.fail(ValidationError{
			Code:    "TOO_MANY_PAGES",
			Message: fmt.Sprintf("document has %d pages, maximum is %d", pages, v.config.MaxPageCount),
			Field:   "pages",
		})
	}

	return result
}

func (r *ValidationResult) fail(err ValidationError) {
	r.IsValid = false
	r.Errors = append(r.Errors, err)
}

// Message returns the first error message, for API responses.
func (r *ValidationResult) Message() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

func detectMimeType(content []byte) string {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

// pageCount parses the document. The parser panics on some malformed
// inputs, so those are converted to errors here.
func pageCount(content []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
