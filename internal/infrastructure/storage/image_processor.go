package storage

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	VariantFull      = "full"
	VariantThumbnail = "thumbnail"
)

type ImageProcessor struct {
	MaxSize       int64 // bytes (default: 10MB)
	ThumbnailSize int
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{
		MaxSize:       10 * 1024 * 1024,
		ThumbnailSize: 256,
	}
}

// Check JPEG/PNG, throw err nếu file > max size
func (p *ImageProcessor) ValidateImage(data []byte) error {
	if int64(len(data)) > p.MaxSize {
		return fmt.Errorf("image exceeds %dMB", p.MaxSize/(1024*1024))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not an image: %w", err)
	}
	switch format {
	case "jpeg", "png":
		return nil
	default:
		return fmt.Errorf("image format %s not allowed (only jpeg/png)", format)
	}
}

// ProcessGenerated fit ảnh do AI sinh ra vào width x height và tạo thumbnail.
// Trả về map[variant][]byte, encode JPEG chất lượng 90.
func (p *ImageProcessor) ProcessGenerated(data []byte, width, height int) (map[string][]byte, error) {
	if err := p.ValidateImage(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	sizes := map[string][2]int{
		VariantFull:      {width, height},
		VariantThumbnail: {p.ThumbnailSize, p.ThumbnailSize},
	}

	variants := make(map[string][]byte, len(sizes))
	for name, size := range sizes {
		resized := img
		if size[0] > 0 && size[1] > 0 {
			resized = imaging.Fit(img, size[0], size[1], imaging.Lanczos)
		}
		b := new(bytes.Buffer)
		if err := jpeg.Encode(b, resized, &jpeg.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("cannot encode %s: %w", name, err)
		}
		variants[name] = b.Bytes()
	}
	return variants, nil
}
