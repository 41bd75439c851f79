package ocrsvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/attendo/core"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestOCRSpace(t *testing.T, status int, body string) *OCRSpace {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.Header.Get("apikey"))
		assert.NoError(t, r.ParseForm())
		assert.True(t, strings.HasPrefix(r.PostForm.Get("base64Image"), "data:image/png;base64,"))
		assert.Equal(t, "eng", r.PostForm.Get("language"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewOCRSpace(core.OCRConfig{
		Engine:   "ocrspace",
		APIKey:   "s3cret",
		Endpoint: srv.URL,
		Language: "eng",
		Timeout:  5 * time.Second,
	})
}

func TestOCRSpace_Recognize(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		want       string
		wantErrStr string
		wantErr    error
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"ParsedResults":[{"ParsedText":"31 Jan 2026\r\nMorning\r\nAD-B\r\n","FileParseExitCode":1}],"OCRExitCode":1,"IsErroredOnProcessing":false}`,
			want:   "31 Jan 2026\nMorning\nAD-B",
		},
		{
			name:   "multiple pages",
			status: http.StatusOK,
			body:   `{"ParsedResults":[{"ParsedText":"Absentees\r\n"},{"ParsedText":""},{"ParsedText":"59.Arun"}],"IsErroredOnProcessing":false}`,
			want:   "Absentees\n59.Arun",
		},
		{
			name:       "processing error list",
			status:     http.StatusOK,
			body:       `{"OCRExitCode":3,"IsErroredOnProcessing":true,"ErrorMessage":["Unable to recognize the file type","E216"]}`,
			wantErrStr: "ocr.space: Unable to recognize the file type; E216",
		},
		{
			name:       "processing error string",
			status:     http.StatusOK,
			body:       `{"OCRExitCode":4,"IsErroredOnProcessing":true,"ErrorMessage":"Timed out"}`,
			wantErrStr: "ocr.space: Timed out",
		},
		{
			name:       "http error",
			status:     http.StatusForbidden,
			body:       `The API key is invalid`,
			wantErrStr: "ocr.space - status: 403 - body: The API key is invalid",
		},
		{
			name:    "no text",
			status:  http.StatusOK,
			body:    `{"ParsedResults":[{"ParsedText":"  \r\n"}],"IsErroredOnProcessing":false}`,
			wantErr: ErrNoText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestOCRSpace(t, tt.status, tt.body)
			got, err := e.Recognize(context.Background(), Image{Name: "message.png", Data: pngData})
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestImage_Sniff(t *testing.T) {
	img := Image{Data: pngData}
	require.NoError(t, img.Sniff())
	assert.Equal(t, "image/png", img.ContentType)

	img = Image{Data: []byte("31 Jan 2026\nMorning")}
	assert.Equal(t, ErrNotImage, errors.Cause(img.Sniff()))

	img = Image{}
	assert.Equal(t, ErrEmptyImage, img.Sniff())
}

func TestNew(t *testing.T) {
	_, err := New(core.OCRConfig{Engine: "ocrspace"})
	assert.Equal(t, ErrMissingAPIKey, err)

	_, err = New(core.OCRConfig{Engine: "lol"})
	assert.Equal(t, ErrUnknownEngine, errors.Cause(err))

	e, err := New(core.OCRConfig{Engine: "ocrspace", APIKey: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "ocrspace", e.Name())
}
