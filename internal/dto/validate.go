package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"pmtrack/internal/reports"
)

// FieldError describes why one field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects the field errors of one request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			msgs = append(msgs, f.Message)
			continue
		}
		msgs = append(msgs, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Configure prepares v to read `binding` tags the way this package does:
// JSON field names in errors and the custom rules registered. It is safe to
// call on gin's validator engine.
func Configure(v *validator.Validate) error {
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v.RegisterValidation("workdays", func(fl validator.FieldLevel) bool {
		days, err := reports.ParseWorkDays(fl.Field().String())
		return err == nil && len(days) > 0
	})
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		if err := Configure(validate); err != nil {
			panic(fmt.Sprintf("dto: configure validator: %v", err))
		}
	})
	return validate
}

// Validate checks v against its binding tags. Failures come back as
// *ValidationError.
func Validate(v any) error {
	if err := engine().Struct(v); err != nil {
		return Describe(err)
	}
	return nil
}

// Decode reads one JSON document from r into v and validates it.
func Decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return Describe(err)
	}
	return Validate(v)
}

// Describe turns binding and decoding errors into a *ValidationError.
// Other errors are returned unchanged.
func Describe(err error) error {
	var (
		verrs  validator.ValidationErrors
		typErr *json.UnmarshalTypeError
		synErr *json.SyntaxError
		numErr *strconv.NumError
		ve     *ValidationError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return ve
	case errors.As(err, &verrs):
		out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
		}
		return out
	case errors.As(err, &typErr):
		return &ValidationError{Fields: []FieldError{{
			Field:   typErr.Field,
			Message: fmt.Sprintf("must be %s, got %s", article(typErr.Type.Kind()), typErr.Value),
		}}}
	case errors.As(err, &synErr):
		return &ValidationError{Fields: []FieldError{{Message: "malformed JSON: " + synErr.Error()}}}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &ValidationError{Fields: []FieldError{{Message: "malformed JSON: unexpected end of input"}}}
	case errors.Is(err, io.EOF):
		return &ValidationError{Fields: []FieldError{{Message: "request body is empty"}}}
	case errors.As(err, &numErr):
		return &ValidationError{Fields: []FieldError{{Message: fmt.Sprintf("%q is not a valid number", numErr.Num)}}}
	case errors.Is(err, ErrInvalidDate):
		return &ValidationError{Fields: []FieldError{{Message: err.Error()}}}
	}
	return err
}

// fieldPath drops the struct name from the namespace:
// "ReorderStatusDto.items[0].statusId" becomes "items[0].statusId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if kind == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		if kind == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "hexcolor":
		return "must be a hex colour such as #2563eb"
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	case "workdays":
		return "must list weekdays such as mon,tue,wed"
	}
	return fmt.Sprintf("failed the %q rule", fe.Tag())
}

func article(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	}
	return "a " + k.String()
}
