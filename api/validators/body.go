package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/proteinapura/storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Fields records which top-level keys were present in a JSON object body.
type Fields map[string]json.RawMessage

// Has reports whether key was sent, including an explicit null.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// IsNull reports whether key was sent as JSON null.
func (f Fields) IsNull(key string) bool {
	raw, ok := f[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeJSONBody decodes and validates a JSON object. Unknown fields are ignored.
func DecodeJSONBody(r *http.Request, dest any) error {
	_, err := DecodeJSONFields(r, dest)
	return err
}

// DecodeJSONFields is DecodeJSONBody that also returns the keys the client sent,
// so partial updates can tell "absent" from "null".
func DecodeJSONFields(r *http.Request, dest any) (Fields, error) {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	if len(raw) > maxBodyBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body too large")
	}

	fields := Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid request body").
			WithDetails(map[string]any{"error": "body must be a JSON object"})
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return nil, decodeError(err)
	}
	if err := ValidateStruct(dest); err != nil {
		return nil, err
	}
	return fields, nil
}

// ValidateStruct runs the struct tags and collects every failing field.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func decodeError(err error) *pkgerrors.Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{typeErr.Field: fmt.Sprintf("has invalid type %s", typeErr.Value)})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr)] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

// fieldPath drops the struct name so nested errors read "galeria_urls[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
