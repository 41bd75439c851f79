package ocrsvc

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
)

var (
	// errors
	ErrEmptyImage    = errors.New("image is empty")
	ErrNoText        = errors.New("no text recognized in image")
	ErrUnknownEngine = errors.New("unknown OCR engine")
	ErrNotImage      = errors.New("file is not an image")
	ErrMissingAPIKey = errors.New("OCR API key is not configured")
	errNoTesseract   = errors.New("built without tesseract support (use -tags tesseract)")

	supportedMIMETypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff", "image/webp", "application/pdf"}
)

// Image is an uploaded screenshot or photo of an attendance message.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Engine extracts the text of an image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img Image) (string, error)
}

// New returns the engine selected by conf.Engine.
func New(conf core.OCRConfig) (Engine, error) {
	switch conf.Engine {
	case "ocrspace", "":
		if conf.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOCRSpace(conf), nil
	case "tesseract":
		return newTesseract(conf)
	default:
		return nil, errors.Wrap(ErrUnknownEngine, conf.Engine)
	}
}

// Sniff checks img holds an image and fills its ContentType from the data.
func (img *Image) Sniff() error {
	if len(img.Data) == 0 {
		return ErrEmptyImage
	}
	mtype := mimetype.Detect(img.Data)
	if !mimetype.EqualsAny(mtype.String(), supportedMIMETypes...) {
		return errors.Wrap(ErrNotImage, mtype.String())
	}
	img.ContentType = mtype.String()
	return nil
}
