package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance and skips
// otherwise.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-attnlens"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte(`{"scene_token":"minio-test"}`)
	err = store.Put(ctx, "manifest.json", data)
	require.NoError(t, err)

	blob, err := store.Open(ctx, "manifest.json")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)
	require.NoError(t, blob.Close())

	blob2, err := store.Open(ctx, "manifest.json")
	require.NoError(t, err)
	rc, err := blob2.ReadRange(ctx, 2, 11)
	require.NoError(t, err)
	partBuf := make([]byte, 11)
	_, err = rc.Read(partBuf)
	require.NoError(t, err)
	assert.Equal(t, "scene_token", string(partBuf))
	require.NoError(t, rc.Close())
	require.NoError(t, blob2.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "manifest.json")

	err = store.Delete(ctx, "manifest.json")
	require.NoError(t, err)

	_, err = store.Open(ctx, "manifest.json")
	require.Error(t, err)

	wb, err := store.Create(ctx, "attn_fp32.bin")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	err = wb.Close()
	require.NoError(t, err)

	blob3, err := store.Open(ctx, "attn_fp32.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob3.Size())
	require.NoError(t, blob3.Close())

	_ = store.Delete(ctx, "attn_fp32.bin")
}
