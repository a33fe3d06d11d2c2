package archive

import (
	"fmt"

	"github.com/jacentio/synarchive/document"
)

// Subject describes the static configuration of one record table.
type Subject struct {
	// Name is the table the subject's records live in (e.g. "projects").
	Name string

	// Identifier is the field inside a composite identity that names records
	// of this subject (e.g. "project_id").
	Identifier string

	// Relations lists every downstream subject reachable through
	// containment. The list must be transitively flattened: expansion and
	// cascade deletion are one hop per listed subject, never recursive, so
	// correctness depends on the closure being externally consistent.
	Relations []string

	// Associations lists the upstream association subjects whose links are
	// accumulated at creation time. Only association subjects set this.
	Associations []string
}

// Registry holds all known subject configurations.
type Registry struct {
	subjects []Subject
	byName   map[string]Subject
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Subject)}
}

// Register adds a subject configuration to the registry. Registering the
// same name twice replaces the earlier configuration.
func (r *Registry) Register(s Subject) {
	if _, present := r.byName[s.Name]; !present {
		r.subjects = append(r.subjects, s)
	} else {
		for i := range r.subjects {
			if r.subjects[i].Name == s.Name {
				r.subjects[i] = s
				break
			}
		}
	}
	r.byName[s.Name] = s
}

// Subject returns the configuration registered under name.
func (r *Registry) Subject(name string) (Subject, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Subjects returns all registered subjects in registration order.
func (r *Registry) Subjects() []Subject {
	return r.subjects
}

// Relational builds a hierarchy-aware view over the named subject.
func (r *Registry) Relational(docs document.Store, name string) (*Relational, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, name)
	}
	return NewRelational(docs, s), nil
}

// Associative builds an association-chain-aware view over the named subject.
func (r *Registry) Associative(docs document.Store, name string) (*Associative, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, name)
	}
	return NewAssociative(docs, s), nil
}
