package storage

import (
	"context"
)

// PostImageDir is the directory (or key prefix) post images are stored under
const PostImageDir = "posts"

// ImageStore persists post images and resolves stored names to public URLs.
// Stored names are relative, e.g. "posts/small.gif".
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Ensure both backends implement ImageStore
var (
	_ ImageStore = (*LocalStore)(nil)
	_ ImageStore = (*S3Store)(nil)
)
