package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"propertyhub_backend/pkg/config"
	imageutil "propertyhub_backend/pkg/utils/image"
	"propertyhub_backend/pkg/utils/validation"
)

// StoredFile describes a file that has been written to a backend.
type StoredFile struct {
	FileName     string // generated name
	OriginalName string
	Path         string // backend-relative path or object key
	URL          string
	Size         int64
	MimeType     string
}

// Storage persists uploaded files. Delete must be idempotent: removing a
// path that no longer exists is not an error.
type Storage interface {
	Save(ctx context.Context, file *multipart.FileHeader, folder string) (*StoredFile, error)
	Delete(ctx context.Context, path string) error
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.UploadDir, cfg.URLPrefix, cfg.OptimizeImages), nil
	case "s3":
		return NewS3(ctx, cfg)
	case "r2":
		return NewR2(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// DetectMimeType sniffs the file content and falls back to the extension.
// The client supplied Content-Type header is never trusted.
func DetectMimeType(file *multipart.FileHeader) string {
	if sniffed, err := validation.SniffContentType(file); err == nil && validation.KnownContentType(sniffed) {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Filename))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}

type fileBody interface {
	io.ReadSeeker
	io.Closer
}

type bytesBody struct{ *bytes.Reader }

func (bytesBody) Close() error { return nil }

// payload opens the upload, re-encoding it first when optimisation is on and
// the file is a raster image.
func payload(file *multipart.FileHeader, optimize bool) (fileBody, int64, string, error) {
	mimeType := DetectMimeType(file)
	if optimize && imageutil.AllowedImageTypes[mimeType] {
		buf, contentType, err := imageutil.ProcessImage(file)
		if err != nil {
			return nil, 0, "", err
		}
		return bytesBody{bytes.NewReader(buf.Bytes())}, int64(buf.Len()), contentType, nil
	}

	src, err := file.Open()
	if err != nil {
		return nil, 0, "", fmt.Errorf("could not open file: %w", err)
	}
	return src, file.Size, mimeType, nil
}

// objectName builds "<folder>/<uuid><ext>" with a slash separator regardless
// of the host OS, so the same key works for disk and object stores.
func objectName(folder, original string) (string, string) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(original))
	return name, path.Join(folder, name)
}
