package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report koanf keys rather than Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg against its struct tags and returns every violation
// as a *ConfigError joined with errors.Join.
func Validate(cfg *Config) error {
	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, toConfigError(fe))
	}
	return errors.Join(errs...)
}

func toConfigError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %v", fe.Value()), strings.Fields(fe.Param()))
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid url %v", fe.Value()), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("must satisfy %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value()), nil)
	}
}
