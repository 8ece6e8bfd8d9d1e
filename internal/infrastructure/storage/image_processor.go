package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxImageSize = 5 * 1024 * 1024 // 5MB
	CoverWidth          = 600
	coverQuality        = 90
)

// ErrUnsupportedImage: file không phải JPEG/PNG hoặc vượt quá MaxSize
var ErrUnsupportedImage = errors.New("unsupported image")

type ImageProcessor struct {
	MaxSize int64
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{MaxSize: DefaultMaxImageSize}
}

// ValidateImage chỉ nhận JPEG/PNG, trả về format ("jpeg" hoặc "png")
func (p *ImageProcessor) ValidateImage(data []byte) (string, error) {
	if int64(len(data)) > p.MaxSize {
		return "", fmt.Errorf("%w: image exceeds %dMB", ErrUnsupportedImage, p.MaxSize/(1024*1024))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: not an image", ErrUnsupportedImage)
	}

	switch format {
	case "jpeg", "png":
		return format, nil
	default:
		return "", fmt.Errorf("%w: format %s not allowed (only jpeg/png)", ErrUnsupportedImage, format)
	}
}

// ResizeCover thu ảnh về rộng CoverWidth (giữ tỉ lệ, không phóng to) → JPEG
func (p *ImageProcessor) ResizeCover(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	if img.Bounds().Dx() > CoverWidth {
		img = imaging.Resize(img, CoverWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, fmt.Errorf("cannot encode cover: %w", err)
	}
	return buf.Bytes(), nil
}
