package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/crowdfund-backend/internal/storage"
)

func TestLocalImageStore_Save(t *testing.T) {
	root := t.TempDir()
	s := &storage.LocalImageStore{Root: root}

	url, err := s.Save(context.Background(), "banner photo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/campaign-images/"))
	assert.True(t, strings.HasSuffix(url, "-banner_photo.png"))

	data, err := os.ReadFile(filepath.Join(root, "campaign-images", strings.TrimPrefix(url, "/campaign-images/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalImageStore_SaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &storage.LocalImageStore{Root: t.TempDir()}
	_, err := s.Save(ctx, "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalImageStore_Remove(t *testing.T) {
	root := t.TempDir()
	s := &storage.LocalImageStore{Root: root}
	ctx := context.Background()

	url, err := s.Save(ctx, "a.png", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, url))

	_, err = os.Stat(filepath.Join(root, "campaign-images", strings.TrimPrefix(url, "/campaign-images/")))
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, s.Remove(ctx, url))

	assert.Error(t, s.Remove(ctx, "/campaign-images/../secrets.env"))
	assert.Error(t, s.Remove(ctx, "/elsewhere/a.png"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd": "passwd",
		"C:\\tmp\\a b.jpg": "a_b.jpg",
		"":                 "image",
		"...":              "image",
		"cover.webp":       "cover.webp",
	}
	for in, want := range tests {
		assert.Equal(t, want, storage.SanitizeFilename(in), in)
	}
}
