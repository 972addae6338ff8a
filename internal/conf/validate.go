package conf

import (
	"github.com/go-playground/validator/v10"

	"github.com/plancheck/plancheck/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSettings checks the loaded settings against the struct-level
// validation tags and returns a configuration error naming the first
// offending field.
func ValidateSettings(settings *Settings) error {
	err := validate.Struct(settings)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]
		return errors.Newf("invalid configuration value for %s (rule: %s)", first.Namespace(), first.Tag()).
			Category(errors.CategoryConfiguration).
			Component("configuration").
			Context("field", first.Namespace()).
			Context("rule", first.Tag()).
			Build()
	}

	return errors.New(err).
		Category(errors.CategoryConfiguration).
		Component("configuration").
		Build()
}
