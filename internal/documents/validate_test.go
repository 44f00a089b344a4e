package documents

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func pdfBytes(n int) []byte {
	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'x'}, n)...)
	return data
}

func TestValidateUploadAcceptsPDF(t *testing.T) {
	got, err := ValidateUpload("invoice.pdf", "application/pdf", pdfBytes(100))
	if err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
	if got.FileName != "invoice.pdf" {
		t.Fatalf("unexpected file name %q", got.FileName)
	}
	if got.Warning != "" {
		t.Fatalf("unexpected warning %q", got.Warning)
	}
}

func TestValidateUploadRejectsEmptyFile(t *testing.T) {
	_, err := ValidateUpload("invoice.pdf", "application/pdf", nil)
	if err == nil || err.Error() != "File is empty." {
		t.Fatalf("expected empty-file rejection, got %v", err)
	}
}

func TestValidateUploadRejectsOversizedFile(t *testing.T) {
	_, err := ValidateUpload("invoice.pdf", "application/pdf", pdfBytes(MaxUploadBytes))
	if err == nil || !strings.Contains(err.Error(), "10MB") {
		t.Fatalf("expected size rejection, got %v", err)
	}
}

func TestValidateUploadRejectsWrongMime(t *testing.T) {
	_, err := ValidateUpload("invoice.pdf", "text/plain", pdfBytes(100))
	if err == nil || !strings.Contains(err.Error(), "PDF") {
		t.Fatalf("expected mime rejection, got %v", err)
	}
}

func TestValidateUploadRejectsBadSignature(t *testing.T) {
	data := append([]byte("NOPE"), bytes.Repeat([]byte{'x'}, 100)...)
	_, err := ValidateUpload("invoice.pdf", "application/pdf", data)
	if err == nil || !strings.Contains(err.Error(), "signature") {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}

func TestValidateUploadRejectsTraversal(t *testing.T) {
	_, err := ValidateUpload("../../etc/passwd.pdf", "application/pdf", pdfBytes(100))
	if err == nil {
		t.Fatal("expected traversal rejection")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %T", err)
	}
}

func TestValidateUploadWarnsOnSuspiciousExtension(t *testing.T) {
	got, err := ValidateUpload("invoice.pdf.exe", "application/pdf", pdfBytes(100))
	if err != nil {
		t.Fatalf("suspicious extension should warn, not reject: %v", err)
	}
	if got.Warning == "" {
		t.Fatal("expected warning for executable-like extension")
	}
}

func TestParseKeywords(t *testing.T) {
	got := ParseKeywords(" invoice number , total,  , vendor ")
	want := []string{"invoice number", "total", "vendor"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
