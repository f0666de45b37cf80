// Package validation checks request DTOs and turns rule failures into
// user-facing messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/natours/api/internal/errors"
)

// TagName is the struct tag DTO rules are declared in.
const TagName = "binding"

const invalidInputPrefix = "Invalid input data."

// New returns a validator that reports fields by their JSON names.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName(TagName)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Messages lists one message per failed rule, in field order.
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if custom := CustomMessage(fieldKey(e)); custom != nil {
			if msg, ok := custom[e.Tag()]; ok {
				out = append(out, msg)
				continue
			}
		}
		out = append(out, DefaultMessage(e.Field(), e.Tag(), e.Param()))
	}
	return out
}

// Translate converts a validator failure into a ValidationError whose
// message lists every failed rule.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	msgs := Messages(err)
	if len(msgs) == 0 {
		return apperrors.WrapError(apperrors.ErrInvalidInput, err)
	}
	return apperrors.WrapError(
		apperrors.NewValidationError("%s %s.", invalidInputPrefix, strings.Join(msgs, ". ")),
		err,
	)
}

// fieldKey trims the namespace down to "<Struct>.<field>".
func fieldKey(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i] + "." + e.Field()
	}
	return ns
}

func joinOptions(param string) string {
	return strings.Join(strings.Fields(param), ", ")
}
