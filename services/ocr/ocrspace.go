package ocrsvc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/attendo/core"
)

// OCRSpace calls the OCR.space parse API.
type OCRSpace struct {
	client   *rest.Client
	endpoint string
	apiKey   string
	language string
}

var _ Engine = (*OCRSpace)(nil)

func NewOCRSpace(conf core.OCRConfig) *OCRSpace {
	return &OCRSpace{
		client:   &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
		endpoint: conf.Endpoint,
		apiKey:   conf.APIKey,
		language: conf.Language,
	}
}

func (e *OCRSpace) Name() string { return "ocrspace" }

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode int    `json:"FileParseExitCode"`
		ErrorMessage      string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"` // string or []string
}

// errorMessage flattens ErrorMessage, which the API sends either as a string or a list.
func (res ocrSpaceResponse) errorMessage() string {
	var msgs []string
	if err := json.Unmarshal(res.ErrorMessage, &msgs); err == nil {
		return strings.Join(msgs, "; ")
	}
	var msg string
	if err := json.Unmarshal(res.ErrorMessage, &msg); err == nil {
		return msg
	}
	return "unknown error"
}

func (e *OCRSpace) Recognize(ctx context.Context, img Image) (string, error) {
	if img.ContentType == "" {
		if err := img.Sniff(); err != nil {
			return "", err
		}
	}

	form := make(url.Values)
	form.Set("base64Image", "data:"+img.ContentType+";base64,"+base64.StdEncoding.EncodeToString(img.Data))
	form.Set("language", e.language)
	form.Set("scale", "true")
	form.Set("OCREngine", "2")
	if img.Name != "" {
		form.Set("filename", img.Name)
	}

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: e.endpoint,
		Headers: map[string]string{
			"apikey":       e.apiKey,
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	}
	res, err := e.client.SendWithContext(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "calling ocr.space")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("ocr.space - status: %d - body: %s", res.StatusCode, res.Body)
	}

	var body ocrSpaceResponse
	if err = json.Unmarshal([]byte(res.Body), &body); err != nil {
		return "", errors.Wrap(err, "decoding ocr.space response")
	}
	if body.IsErroredOnProcessing {
		return "", errors.Errorf("ocr.space: %s", body.errorMessage())
	}

	texts := make([]string, 0, len(body.ParsedResults))
	for _, pr := range body.ParsedResults {
		if t := strings.TrimSpace(pr.ParsedText); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return "", ErrNoText
	}
	// OCR.space ends lines with \r\n
	return strings.ReplaceAll(strings.Join(texts, "\n"), "\r\n", "\n"), nil
}
