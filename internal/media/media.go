// Package media validates uploaded images and videos and stores them.
package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

type Kind string

const (
	Image Kind = "image"
	Video Kind = "video"
)

const (
	MaxImageSize = 5 << 20
	MaxVideoSize = 50 << 20
)

var (
	imageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}
	videoTypes = []string{"video/mp4", "video/webm", "video/ogg", "video/quicktime"}
)

// MaxSize is the largest accepted upload for kind, in bytes.
func (k Kind) MaxSize() int64 {
	if k == Video {
		return MaxVideoSize
	}
	return MaxImageSize
}

func (k Kind) allowed() []string {
	if k == Video {
		return videoTypes
	}
	return imageTypes
}

func (k Kind) typeList() string {
	if k == Video {
		return "MP4, WebM, OGG, MOV"
	}
	return "JPEG, PNG, GIF, WebP"
}

// Storage persists validated media and hands back its public URL.
type Storage interface {
	Store(ctx context.Context, kind Kind, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Validate checks data against kind's size limit and type allow-list. Both
// the declared content type and the sniffed one must be allowed. The returned
// error is an upload AppError whose message can be shown to the client.
func Validate(kind Kind, data []byte, contentType string) (*mimetype.MIME, error) {
	if int64(len(data)) > kind.MaxSize() {
		return nil, models.NewUploadError(fmt.Sprintf("File size exceeds %dMB limit", kind.MaxSize()>>20))
	}

	invalid := models.NewUploadError(fmt.Sprintf("Invalid file type. Only %ss are allowed (%s)", kind, kind.typeList()))

	declared, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(kind.allowed(), strings.ToLower(declared)) {
		return nil, invalid
	}

	sniffed := mimetype.Detect(data)
	if !slices.ContainsFunc(kind.allowed(), sniffed.Is) {
		return nil, invalid
	}
	return sniffed, nil
}

// LocalStorage writes media under Dir/<kind>s/ and serves it from
// BaseURL/uploads/.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	for _, k := range []Kind{Image, Video} {
		if err := os.MkdirAll(filepath.Join(dir, string(k)+"s"), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &LocalStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Store(ctx context.Context, kind Kind, data []byte, contentType string) (string, error) {
	mtype, err := Validate(kind, data, contentType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	rel := path.Join(string(kind)+"s", uuid.NewString()+mtype.Extension())
	if err := os.WriteFile(filepath.Join(s.Dir, filepath.FromSlash(rel)), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.BaseURL + "/uploads/" + rel, nil
}

// Remove deletes media previously returned by Store. URLs outside the upload
// tree are ignored.
func (s *LocalStorage) Remove(_ context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.BaseURL+"/uploads/")
	if !ok || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
