package validation

import (
	"errors"
	"mime/multipart"
	"testing"

	"propertyhub_backend/internal/testutils"
)

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateImage(t *testing.T) {
	if err := ValidateImage(testutils.FileHeader(t, "images", "a.PNG", testutils.PNG(t))); err != nil {
		t.Fatalf("expected png to be accepted: %v", err)
	}
	if err := ValidateImage(header("a.pdf", 1024)); !errors.Is(err, ErrImageType) {
		t.Fatalf("expected ErrImageType, got %v", err)
	}
	if err := ValidateImage(header("a.png", MaxImageSize+1)); err == nil {
		t.Fatalf("expected size error")
	}
	if err := ValidateImage(nil); !errors.Is(err, ErrFileRequired) {
		t.Fatalf("expected ErrFileRequired, got %v", err)
	}
}

func TestValidateImageChecksContent(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
	}{
		{"shell.jpg", []byte("#!/bin/sh\nrm -rf /\n")},
		{"page.png", []byte("<html><body>hi</body></html>")},
		{"deed.jpeg", []byte("%PDF-1.4\n")},
	}
	for _, tc := range cases {
		err := ValidateImage(testutils.FileHeader(t, "images", tc.name, tc.content))
		if !errors.Is(err, ErrContentType) {
			t.Fatalf("%s: expected ErrContentType, got %v", tc.name, err)
		}
	}

	// a real png renamed to .jpg is still rejected
	err := ValidateImage(testutils.FileHeader(t, "images", "photo.jpg", testutils.PNG(t)))
	if !errors.Is(err, ErrContentType) {
		t.Fatalf("expected extension mismatch to be rejected, got %v", err)
	}
}

func TestValidateDocument(t *testing.T) {
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
	accepted := []struct {
		name    string
		content []byte
	}{
		{"deed.pdf", []byte("%PDF-1.4\n%binary")},
		{"scan.png", testutils.PNG(t)},
		{"contract.docx", []byte("PK\x03\x04\x14\x00\x06\x00")},
		{"letter.doc", ole},
	}
	for _, tc := range accepted {
		if err := ValidateDocument(testutils.FileHeader(t, "documents", tc.name, tc.content)); err != nil {
			t.Fatalf("expected %s to be accepted: %v", tc.name, err)
		}
	}

	if err := ValidateDocument(header("run.sh", 10)); !errors.Is(err, ErrDocumentType) {
		t.Fatalf("expected ErrDocumentType, got %v", err)
	}
	if err := ValidateDocument(header("big.pdf", MaxDocumentSize+1)); err == nil {
		t.Fatalf("expected size error")
	}
	fake := testutils.FileHeader(t, "documents", "deed.pdf", []byte("just some text"))
	if err := ValidateDocument(fake); !errors.Is(err, ErrContentType) {
		t.Fatalf("expected ErrContentType for text named .pdf, got %v", err)
	}
}

func TestSniffContentType(t *testing.T) {
	got, err := SniffContentType(testutils.FileHeader(t, "images", "x.bin", testutils.PNG(t)))
	if err != nil || got != "image/png" {
		t.Fatalf("expected image/png, got %q (%v)", got, err)
	}
	got, err = SniffContentType(testutils.FileHeader(t, "documents", "x.txt", []byte("hello")))
	if err != nil || got != "text/plain" {
		t.Fatalf("expected parameters to be stripped, got %q (%v)", got, err)
	}
	if KnownContentType("text/plain") || !KnownContentType("application/pdf") {
		t.Fatalf("unexpected KnownContentType result")
	}
}
