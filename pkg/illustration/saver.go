package illustration

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gen2brain/webp"
	"github.com/segmentio/ksuid"

	"moodtoon/pkg/utils"
)

const maxImageBytes = 32 << 20

// LocalSaver downloads generated images, re-encodes them as WebP under Dir
// and returns URLs under Prefix.
type LocalSaver struct {
	Dir    string
	Prefix string
	Client *http.Client
}

func NewLocalSaver(dir, prefix string) *LocalSaver {
	return &LocalSaver{
		Dir:    dir,
		Prefix: prefix,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *LocalSaver) Save(ctx context.Context, remoteURL, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %s", resp.Status)
	}

	filename := fmt.Sprintf("%s-%s.webp", ksuid.New().String(), utils.SanitizeFilename(name))
	if err := saveToWebP(io.LimitReader(resp.Body, maxImageBytes), filepath.Join(s.Dir, filename)); err != nil {
		return "", err
	}
	return path.Join("/", s.Prefix, filename), nil
}

// saveToWebP decodes a PNG or JPEG and writes it to fullPath as WebP.
func saveToWebP(r io.Reader, fullPath string) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create image dir: %w", err)
	}

	imgBytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 90}); err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}
	return nil
}
