//go:build tesseract

package ocrsvc

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
)

// Tesseract runs OCR locally through libtesseract.
type Tesseract struct {
	clientFactory func() *gosseract.Client
	language      string
}

var _ Engine = (*Tesseract)(nil)

func newTesseract(conf core.OCRConfig) (Engine, error) {
	return &Tesseract{clientFactory: gosseract.NewClient, language: conf.Language}, nil
}

func (e *Tesseract) Name() string { return "tesseract" }

func (e *Tesseract) Recognize(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if e.language != "" {
		if err := c.SetLanguage(e.language); err != nil {
			return "", errors.Wrap(err, "setting language")
		}
	}
	if err := c.SetImageFromBytes(img.Data); err != nil {
		return "", errors.Wrap(err, "setting image")
	}
	text, err := c.Text()
	if err != nil {
		return "", errors.Wrap(err, "recognizing text")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
