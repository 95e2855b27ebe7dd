package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMode selects which rules apply to a book payload.
type ValidationMode int

const (
	// StrictMode requires every field to be present and non-empty.
	StrictMode ValidationMode = iota
	// PartialMode only checks the fields which are present.
	PartialMode
)

// ValidationError holds the first rule violation found on a payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// strictBook and partialBook carry the schema of a book payload for each mode.
// Fields order defines the order in which violations are reported.
type strictBook struct {
	Title       *string `json:"title" validate:"required,min=1"`
	Author      *string `json:"author" validate:"required,min=1"`
	Description *string `json:"description" validate:"required,min=1"`
}

type partialBook struct {
	Title       *string `json:"title" validate:"omitnil,min=1"`
	Author      *string `json:"author" validate:"omitnil,min=1"`
	Description *string `json:"description" validate:"omitnil,min=1"`
}

// BookValidator validates book payloads against the book schema.
type BookValidator struct {
	validate *validator.Validate
}

// NewBookValidator returns a ready to use BookValidator. Fields are
// reported with their json name.
func NewBookValidator() *BookValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &BookValidator{validate: v}
}

// Validate checks the payload under the given mode and returns
// a *ValidationError describing the first failing field if any.
func (bv *BookValidator) Validate(p BookPayload, mode ValidationMode) error {
	var err error
	switch mode {
	case StrictMode:
		err = bv.validate.Struct(strictBook(p))
	case PartialMode:
		err = bv.validate.Struct(partialBook(p))
	default:
		return fmt.Errorf("validator: unknown mode %d", mode)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is required", field)}
	case "min":
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not allowed to be empty", field)}
	default:
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q failed on the %s rule", field, fe.Tag())}
	}
}

// bookFields lists the payload keys in the order violations are reported.
var bookFields = [...]string{"title", "author", "description"}

// DecodeBookRequestBody reads a book creation or update request body.
// An empty body decodes into an empty payload. The body must hold a single
// JSON object and a field set to null is rejected like any non string value.
// Decoding failures are reported as *ValidationError so they map to a client error.
func DecodeBookRequestBody(r *http.Request, p *BookPayload) error {
	if r.Body == nil {
		return nil
	}
	var raw json.RawMessage
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ValidationError{Message: err.Error()}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &ValidationError{Message: "request body must contain a single JSON object"}
	}
	if raw = bytes.TrimSpace(raw); len(raw) == 0 || raw[0] != '{' {
		return &ValidationError{Message: "request body must be an object"}
	}

	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return decodeError(err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &ValidationError{Message: "request body must be an object"}
	}
	for _, name := range bookFields {
		if v, ok := fields[name]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return &ValidationError{Field: name, Message: fmt.Sprintf("%q must be a string", name)}
		}
	}
	return nil
}

// decodeError turns a json decoding failure into a *ValidationError.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return &ValidationError{Message: "request body must be an object"}
		}
		return &ValidationError{Field: typeErr.Field, Message: fmt.Sprintf("%q must be a string", typeErr.Field)}
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		field = strings.Trim(field, `"`)
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not allowed", field)}
	}

	return &ValidationError{Message: err.Error()}
}
