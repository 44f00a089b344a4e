package documents

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"integratepdf-backend/internal/shared/util"
)

var pdfMagic = []byte("%PDF")

// ValidatedUpload is the outcome of upload validation.
type ValidatedUpload struct {
	FileName string
	MimeType string
	Data     []byte
	// Warning is set for suspicious but accepted file names.
	Warning string
}

// ValidateUpload checks an upload in order: file name safety, size,
// declared mime type, PDF signature. The first failure wins.
func ValidateUpload(fileName, mimeType string, data []byte) (ValidatedUpload, error) {
	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return ValidatedUpload{}, newValidationError(err.Error())
	}

	var warning string
	if util.HasSuspiciousExtension(safeName) {
		warning = "file name has an executable-like extension"
	}

	if len(data) == 0 {
		return ValidatedUpload{}, newValidationError("File is empty.")
	}
	if len(data) > MaxUploadBytes {
		return ValidatedUpload{}, newValidationError("File exceeds the 10MB size limit.")
	}
	if mimeType != "application/pdf" {
		return ValidatedUpload{}, newValidationError("Only PDF files are accepted.")
	}
	if len(data) < len(pdfMagic) || !bytes.Equal(data[:len(pdfMagic)], pdfMagic) {
		return ValidatedUpload{}, newValidationError("File signature does not match a PDF document.")
	}

	return ValidatedUpload{
		FileName: safeName,
		MimeType: mimeType,
		Data:     data,
		Warning:  warning,
	}, nil
}

// CountPages parses the PDF structure and returns the page count.
// A parse failure is not fatal for the upload; callers keep the count nil.
func CountPages(data []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return reader.NumPage(), nil
}
