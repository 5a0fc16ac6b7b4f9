package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagMongoURI = "mongouri" // mongodb:// or mongodb+srv:// scheme
	TagTrimmed  = "trimmed"  // no leading/trailing spaces
)

var mongoSchemes = []string{"mongodb://", "mongodb+srv://"}

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagMongoURI, validateMongoURI)
	_ = v.validate.RegisterValidation(TagTrimmed, validateTrimmed)
}

// validateMongoURI checks the scheme only. Full parsing happens when the
// string is materialized.
func validateMongoURI(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	for _, scheme := range mongoSchemes {
		if strings.HasPrefix(value, scheme) {
			return true
		}
	}
	return false
}

func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == strings.TrimSpace(value)
}
