package preview

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/blezek/tga"
)

// Encode writes img in the format named by ext (".png", ".jpg", ".tga" or ".webp").
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, nil)
	case ".tga":
		return tga.Encode(w, img)
	case ".webp":
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("unsupported image format: %q", ext)
}

func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, filepath.Ext(path)); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// SaveAnimation writes frames as an animated WebP. delay is in milliseconds.
func SaveAnimation(path string, frames []image.Image, delay uint) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".webp" {
		return fmt.Errorf("animation is only supported for .webp: %q", ext)
	}
	ani := &nativewebp.Animation{
		Images:    frames,
		Durations: make([]uint, len(frames)),
		Disposals: make([]uint, len(frames)),
	}
	for i := range frames {
		ani.Durations[i] = delay
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.EncodeAll(f, ani, nil); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
