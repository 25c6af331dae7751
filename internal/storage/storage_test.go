package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatube/backend/internal/testutil"
)

func TestGetContentTypeForImage(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".jpg", "image/jpeg"},
		{".JPEG", "image/jpeg"},
		{".png", "image/png"},
		{".GIF", "image/gif"},
		{".webp", "image/webp"},
		{"", "application/octet-stream"},
		{".bmp", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			assert.Equal(t, tt.expected, getContentTypeForImage(tt.extension))
		})
	}
}

func TestValidateImage(t *testing.T) {
	mime, err := ValidateImage(testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mime)

	_, err = ValidateImage([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	// right magic bytes, truncated body
	_, err = ValidateImage(testutil.SmallGIF[:8])
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = ValidateImage(make([]byte, MaxImageSize+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "small.gif", CleanFilename("small.gif"))
	assert.Equal(t, "passwd", CleanFilename("../../etc/passwd"))
	assert.Equal(t, "my_cat.png", CleanFilename(`C:\photos\my cat.png`))
	assert.Equal(t, "image", CleanFilename("..."))
	assert.Equal(t, "cat.jpg", CleanFilename("c<a>t.jpg"))
}

func TestImageFilename(t *testing.T) {
	assert.Equal(t, "evil.gif", ImageFilename("evil.html", "image/gif"))
	assert.Equal(t, "photo.jpg", ImageFilename("photo.JPEG", "image/jpeg"))
	assert.Equal(t, "scan.png", ImageFilename("scan", "image/png"))
	assert.Equal(t, "shell.php.gif", ImageFilename("shell.php.svg", "image/gif"))
	assert.Equal(t, "image.png", ImageFilename("...", "image/png"))
}

func TestLocalStoreSaveAndURL(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media")
	require.NoError(t, err)

	name, err := store.Save(context.Background(), "small.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", name)
	assert.Equal(t, "/media/posts/small.gif", store.URL(name))

	data, err := os.ReadFile(filepath.Join(root, "posts", "small.gif"))
	require.NoError(t, err)
	assert.Equal(t, testutil.SmallGIF, data)

	// same upload name gets a distinct stored name
	second, err := store.Save(context.Background(), "small.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.NotEqual(t, name, second)
	assert.True(t, strings.HasPrefix(second, "posts/small_"))
	assert.True(t, strings.HasSuffix(second, ".gif"))

	require.NoError(t, store.Delete(context.Background(), name))
	_, err = os.Stat(filepath.Join(root, "posts", "small.gif"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(context.Background(), name), "deleting twice is fine")

	assert.Empty(t, store.URL(""))
}
