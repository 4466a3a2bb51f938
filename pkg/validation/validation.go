// Package validation checks service inputs with go-playground/validator.
// Failures are reported as a single errors.Validation keyed by JSON field name.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/i18n"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Amounts are compared as float64 by gt/gte/lte. Columns are NUMERIC(10,2),
	// so every accepted value and bound has at most ten significant digits and
	// converts without crossing a neighbouring cent.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return HasCents(decimal.NewFromFloat(fl.Field().Float()))
	})

	return v
}

// Errors collects field messages. The zero value is ready to use.
type Errors map[string]string

// Add records a failed rule for field. The message comes from the
// validation.<tag> catalog entry with {param} filled in.
func (e *Errors) Add(field, tag, param string) {
	if *e == nil {
		*e = make(Errors)
	}
	if _, exists := (*e)[field]; exists {
		return
	}
	(*e)[field] = i18n.T("validation."+tag, map[string]string{"param": param})
}

// Err returns nil when nothing failed
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return errors.Validation(e)
}

// Struct validates v against its `validate` tags
func Struct(v interface{}) Errors {
	errs := Errors{}

	err := validate.Struct(v)
	if err == nil {
		return errs
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("body", "invalid", "")
		return errs
	}

	for _, fe := range fieldErrs {
		tag := fe.Tag()
		if tag == "money" {
			tag = "decimal_places"
		}
		if i18n.T("validation."+tag) == "validation."+tag {
			tag = "invalid"
		}
		errs.Add(fe.Field(), tag, fe.Param())
	}
	return errs
}

// Check is Struct followed by Err
func Check(v interface{}) error {
	return Struct(v).Err()
}

// HasCents reports whether d has at most two decimal places
func HasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
