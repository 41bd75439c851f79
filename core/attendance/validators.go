package attendance

import (
	"reflect"
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/attendo/core"
)

var (
	sectionTag  = "section"
	sectionText = "section must be one of A or B"

	sessionTag  = "session"
	sessionText = "session must be one of Morning or Afternoon"

	isoDateTag  = "isodate"
	isoDateText = "date must be a valid calendar date formatted as YYYY-MM-DD"

	statusTag  = "exception_status"
	statusText = "status must be one of Absent, OD or Late"

	regNoTag   = "regno"
	regNoText  = "register number must only contain digits"
	regNoRegex = regexp.MustCompile(`^\d+$`)
)

// InitValidators registers the attendance validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	// validate null.String by its value; null values are "missing"
	validate.RegisterCustomTypeFunc(nullStringValue, null.String{})

	_ = validate.RegisterValidation(sectionTag, sectionValidation)
	core.RegisterCustomTranslation(validate, translator, sectionTag, sectionText)

	_ = validate.RegisterValidation(sessionTag, sessionValidation)
	core.RegisterCustomTranslation(validate, translator, sessionTag, sessionText)

	_ = validate.RegisterValidation(isoDateTag, isoDateValidation)
	core.RegisterCustomTranslation(validate, translator, isoDateTag, isoDateText)

	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(regNoTag, regNoValidation)
	core.RegisterCustomTranslation(validate, translator, regNoTag, regNoText)
}

func nullStringValue(v reflect.Value) interface{} {
	if ns, ok := v.Interface().(null.String); ok && ns.Valid {
		return ns.String
	}
	return nil
}

// Custom Validators

func sectionValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, s := range Sections {
		if val == s {
			return true
		}
	}
	return false
}

func sessionValidation(fl validator.FieldLevel) bool {
	val := Session(fl.Field().String())
	for _, s := range Sessions {
		if val == s {
			return true
		}
	}
	return false
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(isoDateLayout, fl.Field().String())
	return err == nil
}

func statusValidation(fl validator.FieldLevel) bool {
	val := Status(fl.Field().String())
	for _, s := range ExceptionStatuses {
		if val == s {
			return true
		}
	}
	return false
}

func regNoValidation(fl validator.FieldLevel) bool {
	return regNoRegex.MatchString(fl.Field().String())
}

// Validate checks a ParsedAttendance submitted for saving (eg. after manual review).
// Unrecognized fields are reported first, with the same messages as Check.
func (pa *ParsedAttendance) Validate(validate *validator.Validate) error {
	if err := pa.Check(); err != nil {
		return err
	}
	return validate.Struct(pa)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}
