package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxImageBytes = 20 << 20

// Image is a photo read from disk and prepared for the analyzers.
type Image struct {
	Path   string
	MIME   string
	Data   []byte
	Base64 string
	SHA256 string
}

// DataURL is the inline form vision chat models accept.
func (i Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + i.Base64
}

// LoadImage reads path and rejects anything whose content is not an image.
func LoadImage(path string) (Image, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Image{}, fmt.Errorf("image path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return Image{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxImageBytes {
		return Image{}, fmt.Errorf("image is %d bytes, limit is %d", info.Size(), maxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return NewImage(path, data)
}

func NewImage(path string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("image is empty")
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, fmt.Errorf("file is not an image (detected %s)", mime)
	}
	sum := sha256.Sum256(data)
	return Image{
		Path:   path,
		MIME:   mime,
		Data:   data,
		Base64: base64.StdEncoding.EncodeToString(data),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// StorePhoto copies img into dir under a random name and returns the new
// path, used as the entry's image reference.
func StorePhoto(dir string, img Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}
	ext, ok := imageExtensions[img.MIME]
	if !ok {
		ext = ".img"
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return path, nil
}
