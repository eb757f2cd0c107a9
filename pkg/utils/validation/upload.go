package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrFileRequired = errors.New("no file provided")
	ErrImageType    = errors.New("invalid image type. Allowed types: JPG, PNG, WEBP")
	ErrDocumentType = errors.New("invalid document type. Allowed types: PDF, JPG, PNG, DOC, DOCX")
	ErrContentType  = errors.New("file content does not match its extension")
)

const (
	MaxImageSize        = 10 * 1024 * 1024 // 10MB
	MaxDocumentSize     = 20 * 1024 * 1024 // 20MB
	MaxImagesPerRequest = 20
)

const (
	sniffLen   = 512
	mimeMSWord = "application/msword"
)

// OLE compound file header used by legacy .doc files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Detected content type -> extensions it may be uploaded under.
var imageContentTypes = map[string]map[string]bool{
	"image/jpeg": {".jpg": true, ".jpeg": true},
	"image/png":  {".png": true},
	"image/webp": {".webp": true},
}

var documentContentTypes = map[string]map[string]bool{
	"application/pdf": {".pdf": true},
	"image/jpeg":      {".jpg": true, ".jpeg": true},
	"image/png":       {".png": true},
	"application/zip": {".docx": true},
	mimeMSWord:        {".doc": true},
}

func ValidateImage(file *multipart.FileHeader) error {
	return validate(file, MaxImageSize, imageContentTypes, ErrImageType)
}

func ValidateDocument(file *multipart.FileHeader) error {
	return validate(file, MaxDocumentSize, documentContentTypes, ErrDocumentType)
}

// SniffContentType reads the first bytes of the upload and reports its
// detected media type, without parameters.
func SniffContentType(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("could not open file: %w", err)
	}
	defer src.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(src, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("could not read file: %w", err)
	}
	buf = buf[:n]

	if bytes.HasPrefix(buf, oleMagic) {
		return mimeMSWord, nil
	}
	contentType := http.DetectContentType(buf)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return contentType, nil
}

// KnownContentType reports whether a sniffed type is one uploads may carry.
func KnownContentType(contentType string) bool {
	_, image := imageContentTypes[contentType]
	_, document := documentContentTypes[contentType]
	return image || document
}

func validate(file *multipart.FileHeader, maxSize int64, allowed map[string]map[string]bool, typeErr error) error {
	if file == nil {
		return ErrFileRequired
	}
	if file.Size > maxSize {
		return fmt.Errorf("file %s exceeds the %dMB limit", file.Filename, maxSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowsExtension(allowed, ext) {
		return typeErr
	}

	contentType, err := SniffContentType(file)
	if err != nil {
		return err
	}
	if !allowed[contentType][ext] {
		return fmt.Errorf("%w: %s looks like %s", ErrContentType, file.Filename, contentType)
	}
	return nil
}

func allowsExtension(allowed map[string]map[string]bool, ext string) bool {
	for _, exts := range allowed {
		if exts[ext] {
			return true
		}
	}
	return false
}
