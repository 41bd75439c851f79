package echoapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
	"github.com/trezcool/attendo/core/user"
	"github.com/trezcool/attendo/services/metrics"
	"github.com/trezcool/attendo/services/ocr"
)

const (
	maxImageSize = 10 << 20 // 10MB

	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var errTextRequired = core.NewValidationError(nil, core.FieldError{Field: "text", Error: "this field is required"})

type attendanceApi struct {
	svc        attendance.Service
	ocr        ocrsvc.Engine
	metrics    *metricsvc.Metrics
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:        deps.AttendanceSvc,
		ocr:        deps.OCR,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/attendance", jwt, activeUserMiddleware(deps.UserSvc))
	ag.POST("/parse", api.parse)
	ag.POST("", api.mark)
	ag.GET("", api.query)
	ag.GET("/export", api.export)
	ag.GET("/stats", api.stats)
}

// Handlers

// parse extracts the attendance of a message, given as JSON text or as an uploaded image.
// Unrecognized fields are reported in `errors`, for review before saving.
func (api *attendanceApi) parse(ctx echo.Context) error {
	var text string
	if isMultipart(ctx) {
		t, err := api.recognize(ctx)
		if err != nil {
			return err
		}
		text = t
	} else {
		var data ParseRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to ParseRequest")
		}
		if strings.TrimSpace(data.Text) == "" {
			return errTextRequired
		}
		text = data.Text
	}

	pa := attendance.Parse(text)
	api.observeParse(pa)

	res := ParseResponse{Text: text, Attendance: pa}
	if vErr, ok := core.AsValidationError(pa.Check()); ok {
		res.Errors = vErr.FieldMap()
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) recognize(ctx echo.Context) (string, error) {
	if api.ocr == nil {
		return "", errOCRUnavailable
	}
	fh, err := ctx.FormFile("image")
	if err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: "image", Error: "this field is required"})
	}
	if fh.Size > maxImageSize {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "image", Error: fmt.Sprintf("image must not exceed %dMB", maxImageSize>>20),
		})
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening image")
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.Wrap(err, "reading image")
	}

	img := ocrsvc.Image{Name: fh.Filename, Data: data}
	if err = img.Sniff(); err != nil {
		return "", err
	}
	text, err := api.ocr.Recognize(ctx.Request().Context(), img)
	if api.metrics != nil {
		api.metrics.ObserveOCR(api.ocr.Name(), err)
	}
	if err != nil {
		if errors.Cause(err) == ocrsvc.ErrNoText {
			return "", err
		}
		api.logger.Error(fmt.Sprintf("recognizing image: %v", err), err)
		return "", errOCRFailed
	}
	return text, nil
}

// mark saves a reviewed attendance; a raw `text` is parsed first.
func (api *attendanceApi) mark(ctx echo.Context) error {
	var data MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}

	pa := data.ParsedAttendance
	if strings.TrimSpace(data.Text) != "" {
		pa = attendance.Parse(data.Text)
		api.observeParse(pa)
	}
	if pa.Exceptions == nil {
		pa.Exceptions = []attendance.Exception{}
	}
	if err := pa.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Mark(ctx.Request().Context(), pa)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	if api.metrics != nil {
		api.metrics.ObserveMark(res)
	}
	var usr user.User
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		usr.ID = claims.Subject
		usr.Username = claims.Username
	}
	api.logger.Info(fmt.Sprintf("attendance marked: %d records", res.Count), res, usr)
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	records, err := api.queryRecords(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) queryRecords(ctx echo.Context) ([]attendance.RecordView, error) {
	filter := new(attendance.RecordFilter)
	if err := ctx.Bind(filter); err != nil {
		return nil, errors.Wrap(err, "binding to RecordFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	return records, nil
}

func (api *attendanceApi) export(ctx echo.Context) error {
	format := strings.ToLower(ctx.QueryParam("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "format must be one of csv or xlsx"})
	}

	records, err := api.queryRecords(ctx)
	if err != nil {
		return err
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "attendance."+format))
	if format == "xlsx" {
		resp.Header().Set(echo.HeaderContentType, mimeXLSX)
		resp.WriteHeader(http.StatusOK)
		return errors.Wrap(attendance.WriteXLSX(resp, records), "writing xlsx")
	}
	resp.Header().Set(echo.HeaderContentType, mimeCSV)
	resp.WriteHeader(http.StatusOK)
	return errors.Wrap(attendance.WriteCSV(resp, records), "writing csv")
}

func (api *attendanceApi) stats(ctx echo.Context) error {
	filter := new(attendance.RecordFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to RecordFilter")
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *attendanceApi) observeParse(pa attendance.ParsedAttendance) {
	if api.metrics != nil {
		api.metrics.ObserveParse(pa)
	}
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

type (
	ParseRequest struct {
		Text string `json:"text"`
	}

	ParseResponse struct {
		Text       string                      `json:"text"`
		Attendance attendance.ParsedAttendance `json:"attendance"`
		Errors     map[string]string           `json:"errors,omitempty"`
	}

	// MarkRequest is a reviewed ParsedAttendance, or a raw Text to parse and save.
	MarkRequest struct {
		Text string `json:"text"`
		attendance.ParsedAttendance
	}
)
