package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// BannerKey builds a collision-free object key for a tournament banner,
// e.g. "tournaments/7/banner-summer-cup-1a2b3c4d.png".
func BannerKey(tournamentID int, tournamentName, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := slug.Make(tournamentName)
	if name == "" {
		name = "tournament"
	}
	return fmt.Sprintf("tournaments/%d/banner-%s-%s%s", tournamentID, name, uuid.NewString()[:8], ext)
}
