package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nexumi/nexumi-core/internal/domain"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const rootLocation = "(root)"

// Validator checks documents against the per-collection rules before they are written
type Validator interface {
	Validate(collection domain.Collection, body []byte) error
	ValidateEntity(collection domain.Collection, v any) error
}

// Registry holds the compiled schema and cross-field rules of every collection.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	schemas map[domain.Collection]*jsonschema.Schema
	rules   map[domain.Collection]rule
	printer *message.Printer
}

// NewRegistry compiles the embedded schemas for every known collection
func NewRegistry() (*Registry, error) {
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	compiler.AssertFormat()

	r := &Registry{
		schemas: make(map[domain.Collection]*jsonschema.Schema, len(domain.Collections)),
		rules:   crossFieldRules(),
		printer: message.NewPrinter(language.English),
	}

	for _, c := range domain.Collections {
		path := schemaPath(c)
		raw, err := schemaFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
		}

		if err := compiler.AddResource(path, doc); err != nil {
			return nil, fmt.Errorf("failed to add schema resource %s: %w", path, err)
		}

		schema, err := compiler.Compile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", path, err)
		}
		r.schemas[c] = schema
	}

	return r, nil
}

// MustRegistry is NewRegistry for callers that cannot recover from a broken build
func MustRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

func schemaPath(c domain.Collection) string {
	return "schemas/" + string(c) + ".schema.json"
}

// Validate checks a JSON document. Returns *domain.ValidationError when the
// document violates the collection's schema or cross-field rules.
func (r *Registry) Validate(collection domain.Collection, body []byte) error {
	schema, ok := r.schemas[collection]
	if !ok {
		return fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, collection)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return domain.NewValidationError(collection, rootLocation, "document is not valid JSON")
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			fields := make(map[string]string)
			r.collectErrors(verr, fields)
			return &domain.ValidationError{Collection: collection, Fields: fields}
		}
		return fmt.Errorf("validation error: %w", err)
	}

	if check, ok := r.rules[collection]; ok {
		fields, err := check(body)
		if err != nil {
			return domain.NewValidationError(collection, rootLocation, err.Error())
		}
		if len(fields) > 0 {
			return &domain.ValidationError{Collection: collection, Fields: fields}
		}
	}

	return nil
}

// ValidateEntity marshals v and validates the result
func (r *Registry) ValidateEntity(collection domain.Collection, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", collection, err)
	}
	return r.Validate(collection, body)
}

// ValidateFile validates a JSON document stored on disk, used by the CLI to
// check documents produced by external tooling before import
func (r *Registry) ValidateFile(collection domain.Collection, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read data file %s: %w", path, err)
	}
	return r.Validate(collection, data)
}

// collectErrors walks the error tree and records the leaves by field path
func (r *Registry) collectErrors(err *jsonschema.ValidationError, fields map[string]string) {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			r.collectErrors(cause, fields)
		}
		return
	}

	location := fieldPath(err.InstanceLocation)
	if req, ok := err.ErrorKind.(*kind.Required); ok {
		for _, missing := range req.Missing {
			fields[joinPath(location, missing)] = "is required"
		}
		return
	}

	msg := err.ErrorKind.LocalizedString(r.printer)
	if existing, ok := fields[location]; ok {
		msg = existing + "; " + msg
	}
	fields[location] = msg
}

// fieldPath renders a JSON pointer as a dotted path matching index field paths
func fieldPath(location []string) string {
	if len(location) == 0 {
		return rootLocation
	}
	return strings.Join(location, ".")
}

func joinPath(parent, field string) string {
	if parent == rootLocation {
		return field
	}
	return parent + "." + field
}
