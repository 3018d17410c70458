package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

func TestLocalArtifactStore_PutGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	store, err := NewLocalArtifactStore(dir, "/artifacts/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "abc.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "/artifacts/abc.png", url)

	data, err := store.Get(context.Background(), "abc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary upload files are cleaned up")
}

func TestLocalArtifactStore_Overwrite(t *testing.T) {
	store, err := NewLocalArtifactStore(t.TempDir(), "/artifacts")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "out.png", "image/png", []byte("first"))
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "out.png", "image/png", []byte("second"))
	require.NoError(t, err)

	data, err := store.Get(context.Background(), "out.png")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalArtifactStore_Missing(t *testing.T) {
	store, err := NewLocalArtifactStore(t.TempDir(), "/artifacts")
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope.png")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestValidateArtifactName(t *testing.T) {
	for _, ok := range []string{"a.png", "4f1c-annotated.png"} {
		assert.NoError(t, ValidateArtifactName(ok), ok)
	}
	for _, bad := range []string{"", "../etc/passwd", "a/b.png", `a\b.png`, ".hidden", ".."} {
		err := ValidateArtifactName(bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), bad)
	}
}

func TestParseBlobURL(t *testing.T) {
	c, b, err := parseBlobURL("https://acct.blob.core.windows.net/uploads?blob=bin.jpg")
	require.NoError(t, err)
	assert.Equal(t, "uploads", c)
	assert.Equal(t, "bin.jpg", b)

	_, _, err = parseBlobURL("https://acct.blob.core.windows.net/uploads")
	assert.Error(t, err)
	_, _, err = parseBlobURL("https://acct.blob.core.windows.net/?blob=x")
	assert.Error(t, err)
}

func TestNewS3ArtifactStore(t *testing.T) {
	store, err := NewS3ArtifactStore("localhost:9000", "key", "secret", "detections", false)
	require.NoError(t, err)
	assert.Equal(t, "detections", store.bucket)

	_, err = store.Put(context.Background(), "../x.png", "image/png", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
