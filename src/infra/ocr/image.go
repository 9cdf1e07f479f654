package ocr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	_ "image/gif"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxPixels bounds the decoded size of an image; a tiny file can declare huge dimensions.
const maxPixels = 100_000_000

// Image is an image ready to be sent to an OCR engine.
type Image struct {
	Data   []byte
	MIME   string
	Format string
	Width  int
	Height int
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + i.Base64()
}

// LoadImage reads an image and makes it acceptable to every engine: JPEG and PNG files
// within maxDimension are sent as is, anything else is decoded, downscaled if needed, and
// re-encoded (JPEG stays JPEG, other formats become PNG).
func LoadImage(path string, maxDimension int) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("not a supported image: %w", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return Image{}, fmt.Errorf("refusing %s image of %dx%d pixels", format, cfg.Width, cfg.Height)
	}

	tooLarge := maxDimension > 0 && (cfg.Width > maxDimension || cfg.Height > maxDimension)
	if !tooLarge && (format == "jpeg" || format == "png") {
		return Image{Data: data, MIME: "image/" + format, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	if tooLarge {
		img = resize.Thumbnail(uint(maxDimension), uint(maxDimension), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	out := Image{Format: format, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if format == "jpeg" {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
		out.MIME = "image/jpeg"
	} else {
		err = png.Encode(&buf, img)
		out.MIME = "image/png"
	}
	if err != nil {
		return Image{}, fmt.Errorf("failed to encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}
