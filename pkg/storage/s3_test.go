package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", PublicBaseURL(S3Config{Bucket: "b", CDNURL: "https://cdn.example.com/"}))
	assert.Equal(t, "http://minio:9000/b", PublicBaseURL(S3Config{Bucket: "b", Endpoint: "http://minio:9000", ForcePathStyle: true}))
	assert.Equal(t, "https://b.s3.amazonaws.com", PublicBaseURL(S3Config{Bucket: "b"}))
}

func TestKeyFromURL(t *testing.T) {
	key, err := KeyFromURL("https://cdn.example.com", "https://cdn.example.com/forum/avatars/u1/abc.png?v=2")
	require.NoError(t, err)
	assert.Equal(t, "forum/avatars/u1/abc.png", key)

	_, err = KeyFromURL("https://cdn.example.com", "https://elsewhere.com/avatars/u1/abc.png")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = KeyFromURL("https://cdn.example.com", "https://cdn.example.com/")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("avatars", "user-1", "Photo.PNG")
	assert.True(t, strings.HasPrefix(key, "avatars/user-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	assert.NotEqual(t, key, GenerateKey("avatars", "user-1", "Photo.PNG"))
	assert.True(t, strings.HasPrefix(GenerateKey("banners", "", "b.jpg"), "banners/"))
}
