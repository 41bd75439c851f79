package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
)

type studentApi struct {
	svc        attendance.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:        deps.AttendanceSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/students", jwt, activeUserMiddleware(deps.UserSvc))
	sg.GET("", api.query)
	sg.POST("", api.importRoster)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	var filter attendance.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to StudentFilter")
	}
	filter.Section = strings.ToUpper(core.CleanString(filter.Section))

	students, err := api.svc.Students(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

// importRoster adds or updates students, from a JSON list or a CSV roster (Content-Type: text/csv).
func (api *studentApi) importRoster(ctx echo.Context) error {
	var data []attendance.NewStudent
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), "text/csv") {
		students, err := attendance.ParseStudentsCSV(ctx.Request().Body)
		if err != nil {
			if err == attendance.ErrRosterHeader {
				return core.NewValidationError(err)
			}
			return errors.Wrap(err, "reading roster")
		}
		data = students
	} else if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []NewStudent")
	}

	if len(data) == 0 {
		return core.NewValidationError(attendance.ErrEmptyRoster)
	}
	var fldErrs []core.FieldError
	for i := range data {
		if err := data[i].Validate(api.validate); err != nil {
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return errors.Wrap(err, "validating student")
			}
			for fld, msg := range core.TranslateValidationErrors(vErrs, api.translator) {
				fldErrs = append(fldErrs, core.FieldError{Field: fmt.Sprintf("%d.%s", i, fld), Error: msg})
			}
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}

	students, err := api.svc.ImportStudents(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusCreated, students)
}
