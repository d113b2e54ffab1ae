// Package validation holds payload validation and startup service checks.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/uniconnect/backend/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance. Field names in errors use
// the json tag so messages match what clients send.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s and converts the first failure into a BAD_REQUEST error.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.BadRequest("Invalid payload")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "required_without":
		return apperrors.MissingField(fe.Field())
	}
	apiErr := apperrors.BadRequest(fmt.Sprintf("%s is invalid", fe.Field()))
	apiErr.Field = fe.Field()
	return apiErr
}
