// Package platform configures the collaborative-computation hierarchy on top
// of the archive engine: which subjects exist, how their composite keys are
// built, which downstream subjects each one contains and which association
// chains link them. It exposes one typed record store per subject, with
// payload validation wired in front of writes.
package platform

import (
	"context"

	"github.com/jacentio/synarchive/archive"
	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/schema"
)

// Subject table names.
const (
	SubjectCollaborations = "collaborations"
	SubjectProjects       = "projects"
	SubjectExperiments    = "experiments"
	SubjectRuns           = "runs"
	SubjectParticipants   = "participants"
	SubjectRegistrations  = "registrations"
	SubjectTags           = "tags"
	SubjectAlignments     = "alignments"
	SubjectModels         = "models"
	SubjectValidations    = "validations"
	SubjectPredictions    = "predictions"
)

// Registry returns the platform's static subject configuration. Relation
// lists are transitively flattened by hand here; the archive engine performs
// one-hop expansion and cascade over whatever this registry declares.
func Registry() *archive.Registry {
	r := archive.NewRegistry()

	r.Register(archive.Subject{
		Name:       SubjectCollaborations,
		Identifier: "collab_id",
		Relations: []string{
			SubjectProjects, SubjectExperiments, SubjectRuns,
			SubjectRegistrations, SubjectTags, SubjectAlignments,
			SubjectModels, SubjectValidations, SubjectPredictions,
		},
	})
	r.Register(archive.Subject{
		Name:       SubjectProjects,
		Identifier: "project_id",
		Relations: []string{
			SubjectExperiments, SubjectRuns,
			SubjectRegistrations, SubjectTags, SubjectAlignments,
			SubjectModels, SubjectValidations, SubjectPredictions,
		},
	})
	r.Register(archive.Subject{
		Name:       SubjectExperiments,
		Identifier: "expt_id",
		Relations:  []string{SubjectRuns, SubjectModels, SubjectValidations, SubjectPredictions},
	})
	r.Register(archive.Subject{
		Name:       SubjectRuns,
		Identifier: "run_id",
		Relations:  []string{SubjectModels, SubjectValidations, SubjectPredictions},
	})
	r.Register(archive.Subject{
		Name:       SubjectParticipants,
		Identifier: "participant_id",
		Relations:  []string{SubjectRegistrations, SubjectTags, SubjectAlignments},
	})

	// Association chain: a participant registers for a project, tags the
	// datasets it brings, and aligns them against the federation.
	r.Register(archive.Subject{
		Name:       SubjectRegistrations,
		Identifier: "registration_id",
		Relations:  []string{SubjectTags, SubjectAlignments},
	})
	r.Register(archive.Subject{
		Name:         SubjectTags,
		Identifier:   "tag_id",
		Relations:    []string{SubjectAlignments},
		Associations: []string{SubjectRegistrations},
	})
	r.Register(archive.Subject{
		Name:         SubjectAlignments,
		Identifier:   "alignment_id",
		Associations: []string{SubjectRegistrations, SubjectTags},
	})

	// Training and evaluation artifacts hang off a run.
	r.Register(archive.Subject{
		Name:       SubjectModels,
		Identifier: "model_id",
		Relations:  []string{SubjectValidations, SubjectPredictions},
	})
	r.Register(archive.Subject{
		Name:         SubjectValidations,
		Identifier:   "val_id",
		Associations: []string{SubjectModels},
	})
	r.Register(archive.Subject{
		Name:         SubjectPredictions,
		Identifier:   "pred_id",
		Associations: []string{SubjectModels, SubjectRegistrations, SubjectTags},
	})

	return r
}

// registry backs the typed store constructors.
var registry = Registry()

func subjectConfig(name string) archive.Subject {
	s, _ := registry.Subject(name)
	return s
}

// --- Composite key builders ---

// CollaborationKey builds the composite key of a collaboration.
func CollaborationKey(collabID string) archive.Key {
	return archive.Key{"collab_id": collabID}
}

// ProjectKey builds the composite key of a project within a collaboration.
func ProjectKey(collabID, projectID string) archive.Key {
	return archive.Key{"collab_id": collabID, "project_id": projectID}
}

// ExperimentKey builds the composite key of an experiment within a project.
func ExperimentKey(collabID, projectID, exptID string) archive.Key {
	return archive.Key{"collab_id": collabID, "project_id": projectID, "expt_id": exptID}
}

// RunKey builds the composite key of a run within an experiment.
func RunKey(collabID, projectID, exptID, runID string) archive.Key {
	return archive.Key{
		"collab_id": collabID, "project_id": projectID,
		"expt_id": exptID, "run_id": runID,
	}
}

// ParticipantKey builds the composite key of a participant.
func ParticipantKey(participantID string) archive.Key {
	return archive.Key{"participant_id": participantID}
}

// RegistrationKey builds the composite key shared by the registration
// association chain: registrations, tags and alignments all bind one
// participant to one project.
func RegistrationKey(collabID, projectID, participantID string) archive.Key {
	return archive.Key{
		"collab_id": collabID, "project_id": projectID,
		"participant_id": participantID,
	}
}

// ModelKey builds the composite key of a trained model for a run.
func ModelKey(collabID, projectID, exptID, runID string) archive.Key {
	return archive.Key{
		"collab_id": collabID, "project_id": projectID,
		"expt_id": exptID, "run_id": runID,
	}
}

// InferenceKey builds the composite key shared by per-participant evaluation
// artifacts: validations and predictions.
func InferenceKey(collabID, projectID, exptID, runID, participantID string) archive.Key {
	return archive.Key{
		"collab_id": collabID, "project_id": projectID,
		"expt_id": exptID, "run_id": runID,
		"participant_id": participantID,
	}
}

// --- Shared store plumbing ---

// relationalRecords wires a relational view with the payload validator.
type relationalRecords struct {
	view      *archive.Relational
	validator *schema.Validator
}

func newRelationalRecords(docs document.Store, name string, validator *schema.Validator) relationalRecords {
	return relationalRecords{view: archive.NewRelational(docs, subjectConfig(name)), validator: validator}
}

func (r relationalRecords) create(ctx context.Context, key archive.Key, details archive.Details) (archive.Record, error) {
	if err := validate(r.validator, r.view.Subject().Name, details); err != nil {
		return archive.Record{}, err
	}
	return r.view.Create(ctx, archive.Record{Key: key, Details: details})
}

func (r relationalRecords) update(ctx context.Context, key archive.Key, patch archive.Details) (archive.Record, error) {
	if r.validator != nil {
		current, err := r.view.Read(ctx, key)
		if err != nil {
			return archive.Record{}, err
		}
		if err := validate(r.validator, r.view.Subject().Name, mergedDetails(current.Details, patch)); err != nil {
			return archive.Record{}, err
		}
	}
	return r.view.Update(ctx, key, patch)
}

// associativeRecords wires an associative view with the payload validator.
type associativeRecords struct {
	view      *archive.Associative
	validator *schema.Validator
}

func newAssociativeRecords(docs document.Store, name string, validator *schema.Validator) associativeRecords {
	return associativeRecords{view: archive.NewAssociative(docs, subjectConfig(name)), validator: validator}
}

func (r associativeRecords) create(ctx context.Context, key archive.Key, details archive.Details) (archive.Record, error) {
	if err := validate(r.validator, r.view.Subject().Name, details); err != nil {
		return archive.Record{}, err
	}
	return r.view.Create(ctx, archive.Record{Key: key, Details: details})
}

func (r associativeRecords) update(ctx context.Context, key archive.Key, patch archive.Details) (archive.Record, error) {
	if r.validator != nil {
		current, err := r.view.Read(ctx, key)
		if err != nil {
			return archive.Record{}, err
		}
		if err := validate(r.validator, r.view.Subject().Name, mergedDetails(current.Details, patch)); err != nil {
			return archive.Record{}, err
		}
	}
	return r.view.Update(ctx, key, patch)
}

// validate runs the subject's schema over details; a nil validator passes
// everything through.
func validate(v *schema.Validator, subject string, details archive.Details) error {
	if v == nil {
		return nil
	}
	return v.Validate(subject, map[string]any(details))
}

// mergedDetails overlays patch on current, so updates are validated against
// the payload the record will carry after the patch lands.
func mergedDetails(current, patch archive.Details) archive.Details {
	merged := make(archive.Details, len(current)+len(patch))
	for field, value := range current {
		merged[field] = value
	}
	for field, value := range patch {
		merged[field] = value
	}
	return merged
}
