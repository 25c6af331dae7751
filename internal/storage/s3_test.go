package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yatube/backend/internal/testutil"
)

// fakeBucket is a path-style S3 endpoint holding objects in memory
type fakeBucket struct {
	mu      sync.Mutex
	name    string
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prefix := "/" + b.name
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		if _, ok := b.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Store(t *testing.T) (*S3Store, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{name: "media", objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(srv.URL),
		UsePathStyle:     true,
		Credentials:      aws.AnonymousCredentials{},
		RetryMaxAttempts: 1,
	})
	return &S3Store{
		client:  client,
		bucket:  bucket.name,
		region:  "us-east-1",
		baseURL: "https://cdn.example.com",
	}, bucket
}

func TestS3StoreURL(t *testing.T) {
	store := &S3Store{bucket: "media", region: "us-east-1", baseURL: "https://cdn.example.com"}

	assert.Equal(t, "https://cdn.example.com/posts/small.gif", store.URL("posts/small.gif"))
	assert.Empty(t, store.URL(""))
}

func TestS3StoreSaveAvoidsOverwrite(t *testing.T) {
	store, bucket := newFakeS3Store(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "small.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", first)
	assert.Equal(t, "image/gif", bucket.types[first])

	second, err := store.Save(ctx, "small.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "posts/small_"))
	assert.True(t, strings.HasSuffix(second, ".gif"))
	assert.Len(t, bucket.objects, 2)
}

func TestS3StoreDelete(t *testing.T) {
	store, bucket := newFakeS3Store(t)
	ctx := context.Background()

	name, err := store.Save(ctx, "../../etc/cat picture.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, "posts/cat_picture.gif", name)

	require.NoError(t, store.Delete(ctx, name))
	assert.Empty(t, bucket.objects)
}

func TestS3StoreCheckBucketAccess(t *testing.T) {
	store, _ := newFakeS3Store(t)
	assert.NoError(t, store.CheckBucketAccess(context.Background()))

	store.bucket = "missing"
	assert.Error(t, store.CheckBucketAccess(context.Background()))
}
