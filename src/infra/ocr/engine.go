package ocr

import (
	"context"
	"errors"
)

// ErrNoText is returned when the engine did not find any text in the image.
var ErrNoText = errors.New("no text recognized")

// Engine turns an image into text.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img Image) (string, error)
}
