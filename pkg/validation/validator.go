package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/devconnector/pkg/response"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for common validations.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// Registration requires 6+ characters.
		v.RegisterAlias("pwd", "min=6")
	}
}

// ToFieldErrors converts binding/validation failures into the
// {"errors":[{"msg","param"}]} list the API returns.
func ToFieldErrors(err error) []response.FieldError {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return []response.FieldError{{Msg: "Invalid JSON payload"}}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]response.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, response.FieldError{Msg: messageFor(fe), Param: fe.Field()})
		}
		return out
	}

	return []response.FieldError{{Msg: "Invalid payload"}}
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return titleCase(field) + " is required"
	case "email":
		return "Please include a valid email"
	case "pwd", "min":
		if field == "password" {
			return "Please enter a password with 6 or more characters"
		}
		return titleCase(field) + " is too short"
	case "max":
		return titleCase(field) + " is too long"
	case "url":
		return titleCase(field) + " must be a valid URL"
	default:
		return titleCase(field) + " is invalid"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
