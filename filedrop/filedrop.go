// Package filedrop stores uploaded crop photos on local disk and builds
// the resized thumbnail served in listings.
package filedrop

import (
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"farm2market/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const thumbWidth = 320

// Saver writes crop images under a root directory and reports the
// public URL paths for the full image and its thumbnail.
type Saver struct {
	Root string
}

// New builds a Saver rooted at dir (UPLOAD_DIR, default ./static/uploads).
func New(dir string) *Saver {
	if dir == "" {
		dir = "./static/uploads"
	}
	return &Saver{Root: dir}
}

// SaveCropImage persists the uploaded file and a JPEG thumbnail beside
// it. It returns the URL paths ("/uploads/crops/<name>") to store on
// the crop.
func (s *Saver) SaveCropImage(file multipart.File, header *multipart.FileHeader) (imageURL, thumbURL string, err error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !utils.ValidateImageFileType(ext) {
		return "", "", fmt.Errorf("unsupported image type %q", ext)
	}

	dir := filepath.Join(s.Root, "crops")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString()
	fullPath := filepath.Join(dir, name+ext)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", "", fmt.Errorf("write image file: %w", err)
	}
	dst.Close()

	thumbPath := filepath.Join(dir, name+"_thumb.jpg")
	if err := writeThumb(fullPath, thumbPath); err != nil {
		os.Remove(fullPath)
		return "", "", err
	}

	return "/uploads/crops/" + name + ext, "/uploads/crops/" + name + "_thumb.jpg", nil
}

func writeThumb(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(dstPath)
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}
