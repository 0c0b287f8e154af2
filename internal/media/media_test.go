package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		data        []byte
		contentType string
		wantErr     string
	}{
		{"png image", Image, pngHeader, "image/png", ""},
		{"declared with params", Image, pngHeader, "image/png; charset=binary", ""},
		{"declared type not allowed", Image, pngHeader, "application/pdf", "Invalid file type. Only images are allowed (JPEG, PNG, GIF, WebP)"},
		{"content is not an image", Image, []byte("hello world"), "image/png", "Invalid file type. Only images are allowed (JPEG, PNG, GIF, WebP)"},
		{"png is not a video", Video, pngHeader, "video/mp4", "Invalid file type. Only videos are allowed (MP4, WebM, OGG, MOV)"},
		{"image too large", Image, make([]byte, MaxImageSize+1), "image/png", "File size exceeds 5MB limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.kind, tt.data, tt.contentType)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.KindUpload))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLocalStorage_StoreAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Store(ctx, Image, pngHeader, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/images/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	rel := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, s.Remove(ctx, url))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(ctx, url))
	assert.NoError(t, s.Remove(ctx, "https://elsewhere.example/x.png"))
}

func TestLocalStorage_RejectsWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "")
	require.NoError(t, err)

	_, err = s.Store(context.Background(), Video, pngHeader, "video/mp4")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "videos"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
