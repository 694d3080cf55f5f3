package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	hhmmTag     = "hhmm"
	weekdayTag  = "weekday"
	notBlankTag = "notblank"
)

// NewValidator returns a validator reporting JSON field names and knowing the
// timetable specific tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation(hhmmTag, func(fl validator.FieldLevel) bool {
		_, err := scheduler.NormalizeClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(weekdayTag, func(fl validator.FieldLevel) bool {
		_, err := scheduler.NormalizeDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validationError converts validator output into a 400 carrying per field tags.
func validationError(err error, message string) *appErrors.Error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		appErr.Details = make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			appErr.Details[fe.Field()] = fe.Tag()
		}
	}
	return appErr
}

// validID rejects identifiers that can never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func paginate(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
