//go:build !tesseract

package ocrsvc

import "github.com/trezcool/attendo/core"

func newTesseract(core.OCRConfig) (Engine, error) {
	return nil, errNoTesseract
}
