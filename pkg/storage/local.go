package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local keeps files under a root directory on disk.
type Local struct {
	root      string
	urlPrefix string
	optimize  bool
}

func NewLocal(root, urlPrefix string, optimize bool) *Local {
	if root == "" {
		root = "uploads"
	}
	return &Local{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/"), optimize: optimize}
}

func (l *Local) Root() string {
	return l.root
}

func (l *Local) Save(ctx context.Context, file *multipart.FileHeader, folder string) (*StoredFile, error) {
	body, size, mimeType, err := payload(file, l.optimize)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	name, rel := objectName(folder, file.Filename)
	dst, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("could not create file: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return nil, fmt.Errorf("could not write file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("could not write file: %w", err)
	}

	return &StoredFile{
		FileName:     name,
		OriginalName: filepath.Base(file.Filename),
		Path:         rel,
		URL:          path.Join(l.urlPrefix, rel),
		Size:         size,
		MimeType:     mimeType,
	}, nil
}

func (l *Local) Delete(ctx context.Context, p string) error {
	target, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete file %s: %w", p, err)
	}
	return nil
}

// resolve joins a stored path onto the root and refuses anything escaping it.
func (l *Local) resolve(p string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == "." || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage path %q", p)
	}

	rootAbs, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("could not resolve upload root: %w", err)
	}
	target := filepath.Join(rootAbs, clean)
	rel, err := filepath.Rel(rootAbs, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path %q", p)
	}
	return target, nil
}
