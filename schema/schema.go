// Package schema validates record payloads against per-subject JSON schemas.
//
// Schemas live as embedded JSON documents under templates/, one file per
// subject, expressed in OpenAPI schema form. Subjects without a template
// accept any payload: validation is an opt-in front gate wired by typed
// stores, never by the record engine itself.
package schema

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed templates/*.json
var templates embed.FS

// ErrInvalidPayload reports a payload rejected by its subject's schema.
var ErrInvalidPayload = errors.New("synarchive: payload failed schema validation")

// Validator evaluates payloads against the embedded subject schemas.
type Validator struct {
	schemas map[string]*openapi3.Schema
}

// Load parses every embedded template into a ready Validator.
func Load() (*Validator, error) {
	entries, err := fs.ReadDir(templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("synarchive: reading schema templates: %w", err)
	}

	v := &Validator{schemas: make(map[string]*openapi3.Schema, len(entries))}
	for _, entry := range entries {
		raw, err := templates.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("synarchive: reading schema %s: %w", entry.Name(), err)
		}

		s := &openapi3.Schema{}
		if err := s.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("synarchive: parsing schema %s: %w", entry.Name(), err)
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".json")] = s
	}
	return v, nil
}

// Subjects returns the subject names that carry a schema, sorted.
func (v *Validator) Subjects() []string {
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks payload against the subject's schema. Subjects without a
// schema accept any payload, as does a schema-less nil payload.
func (v *Validator) Validate(subject string, payload map[string]any) error {
	s, ok := v.schemas[subject]
	if !ok {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := s.VisitJSON(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, subject, err)
	}
	return nil
}
