package editor

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/unified-personal-site-frontend/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json names so the browser can map them to inputs
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateForm runs the struct tags of form and collects every failure.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.NewMalformedPayloadError("form", err)
	}

	out := make(errs.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_if":
			out = append(out, errs.NewMissingRequiredFieldError(fe.Field()))
		case "oneof":
			out = append(out, errs.NewInvalidFieldError(fe.Field(), "must be one of "+fe.Param()))
		case "gte":
			out = append(out, errs.NewInvalidFieldError(fe.Field(), "must be at least "+fe.Param()))
		default:
			out = append(out, errs.NewInvalidFieldError(fe.Field(), "failed "+fe.Tag()))
		}
	}
	return out
}
