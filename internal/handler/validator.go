package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

var validate *Validator

// entityIDPattern matches player, item, listing, guild and world ids
var entityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

// usernamePattern mirrors the player schema: 3-20 word characters
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// InitValidator initializes the global validator
func InitValidator() {
	v := validator.New()

	// Report json field names so clients see the names they sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("entityid", validatePattern(entityIDPattern))
	_ = v.RegisterValidation("username", validatePattern(usernamePattern))
	_ = v.RegisterValidation("listingttl", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= MaxListingTTLHours
	})

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError formats validation errors into a user-friendly map
// keyed by json field name
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "email":
			errs[field] = "Invalid email format"
		case "entityid":
			errs[field] = "Must be 1-64 letters, digits, '_' or '-'"
		case "username":
			errs[field] = "Must be 3-20 letters, digits or '_'"
		case "listingttl":
			errs[field] = fmt.Sprintf("Must be at most %d hours", MaxListingTTLHours)
		case "oneof":
			errs[field] = fmt.Sprintf("Must be one of: %s", e.Param())
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		case "gt":
			errs[field] = fmt.Sprintf("Must be greater than %s", e.Param())
		case "excludesall":
			errs[field] = "Contains invalid characters"
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

func validatePattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		// emptiness is the job of the 'required' tag
		if value == "" {
			return true
		}
		return re.MatchString(value)
	}
}
