package validators

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// FieldError is one entry of a validation failure response.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
}

// ErrorResponse is the body of every 400 produced by validation and login.
type ErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// Messenger lets a request type override the message reported per JSON field.
type Messenger interface {
	ValidationMessages() map[string]string
}

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate checks i and returns a 400 *echo.HTTPError carrying an
// ErrorResponse that lists every violated field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var messages map[string]string
	if m, ok := i.(Messenger); ok {
		messages = m.ValidationMessages()
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = defaultMessage(fe)
		}
		out = append(out, FieldError{Msg: msg, Param: fe.Field(), Location: "body"})
	}
	return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Errors: out})
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// Single wraps one message in an ErrorResponse, as used for
// credential failures that are not tied to a field.
func Single(msg string) ErrorResponse {
	return ErrorResponse{Errors: []FieldError{{Msg: msg}}}
}
