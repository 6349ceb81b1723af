package storage

import (
	"context"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannerKey(t *testing.T) {
	key := BannerKey(7, "Summer Cup 2024!", "Photo.PNG")

	assert.Regexp(t, regexp.MustCompile(`^tournaments/7/banner-summer-cup-2024-[0-9a-f]{8}\.png$`), key)
	assert.NotEqual(t, key, BannerKey(7, "Summer Cup 2024!", "Photo.PNG"))
}

func TestBannerKey_EmptyName(t *testing.T) {
	key := BannerKey(3, "!!!", "banner")

	assert.Regexp(t, `^tournaments/3/banner-tournament-[0-9a-f]{8}$`, key)
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{name: "plain host", base: "https://cdn.example.com", key: "tournaments/1/a.png", want: "https://cdn.example.com/tournaments/1/a.png"},
		{name: "trailing slash", base: "https://cdn.example.com/", key: "/tournaments/1/a.png", want: "https://cdn.example.com/tournaments/1/a.png"},
		{name: "base path", base: "https://example.com/media", key: "a.png", want: "https://example.com/media/a.png"},
		{name: "empty key", base: "https://cdn.example.com", key: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := url.Parse(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, publicURL(base, tt.key))
		})
	}

	assert.Empty(t, publicURL(nil, "a.png"))
}

func TestNewCloudflareR2Uploader_Validation(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	assert.Error(t, err)

	_, err = NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccountID:       "acc",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "bucket",
		PublicBaseURL:   "not a url",
	})
	assert.Error(t, err)
}

func TestNewCloudflareR2Uploader(t *testing.T) {
	u, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{
		AccountID:       "acc",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "bucket",
		PublicBaseURL:   "https://pub.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pub.example.com/k.png", u.GetPublicURL("k.png"))
}
