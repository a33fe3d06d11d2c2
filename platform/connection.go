package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacentio/synarchive/archive"
	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/schema"
)

// CollaborationRecords manages the top of the containment hierarchy. Deleting
// a collaboration cascades through everything registered under it.
type CollaborationRecords struct {
	relationalRecords
}

// NewCollaborationRecords creates a typed store over docs. A nil validator
// disables payload validation.
func NewCollaborationRecords(docs document.Store, validator *schema.Validator) *CollaborationRecords {
	return &CollaborationRecords{newRelationalRecords(docs, SubjectCollaborations, validator)}
}

func (r *CollaborationRecords) Create(ctx context.Context, collabID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, CollaborationKey(collabID), details)
}

func (r *CollaborationRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *CollaborationRecords) Read(ctx context.Context, collabID string) (archive.Record, error) {
	return r.view.Read(ctx, CollaborationKey(collabID))
}

func (r *CollaborationRecords) Update(ctx context.Context, collabID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, CollaborationKey(collabID), patch)
}

func (r *CollaborationRecords) Delete(ctx context.Context, collabID string) (archive.Record, error) {
	return r.view.Delete(ctx, CollaborationKey(collabID))
}

// ProjectRecords manages projects within a collaboration.
type ProjectRecords struct {
	relationalRecords
}

func NewProjectRecords(docs document.Store, validator *schema.Validator) *ProjectRecords {
	return &ProjectRecords{newRelationalRecords(docs, SubjectProjects, validator)}
}

func (r *ProjectRecords) Create(ctx context.Context, collabID, projectID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, ProjectKey(collabID, projectID), details)
}

func (r *ProjectRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *ProjectRecords) Read(ctx context.Context, collabID, projectID string) (archive.Record, error) {
	return r.view.Read(ctx, ProjectKey(collabID, projectID))
}

func (r *ProjectRecords) Update(ctx context.Context, collabID, projectID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, ProjectKey(collabID, projectID), patch)
}

func (r *ProjectRecords) Delete(ctx context.Context, collabID, projectID string) (archive.Record, error) {
	return r.view.Delete(ctx, ProjectKey(collabID, projectID))
}

// ExperimentRecords manages experiments within a project.
type ExperimentRecords struct {
	relationalRecords
}

func NewExperimentRecords(docs document.Store, validator *schema.Validator) *ExperimentRecords {
	return &ExperimentRecords{newRelationalRecords(docs, SubjectExperiments, validator)}
}

func (r *ExperimentRecords) Create(ctx context.Context, collabID, projectID, exptID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, ExperimentKey(collabID, projectID, exptID), details)
}

func (r *ExperimentRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *ExperimentRecords) Read(ctx context.Context, collabID, projectID, exptID string) (archive.Record, error) {
	return r.view.Read(ctx, ExperimentKey(collabID, projectID, exptID))
}

func (r *ExperimentRecords) Update(ctx context.Context, collabID, projectID, exptID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, ExperimentKey(collabID, projectID, exptID), patch)
}

func (r *ExperimentRecords) Delete(ctx context.Context, collabID, projectID, exptID string) (archive.Record, error) {
	return r.view.Delete(ctx, ExperimentKey(collabID, projectID, exptID))
}

// RunRecords manages runs within an experiment.
type RunRecords struct {
	relationalRecords
}

func NewRunRecords(docs document.Store, validator *schema.Validator) *RunRecords {
	return &RunRecords{newRelationalRecords(docs, SubjectRuns, validator)}
}

func (r *RunRecords) Create(ctx context.Context, collabID, projectID, exptID, runID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, RunKey(collabID, projectID, exptID, runID), details)
}

func (r *RunRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *RunRecords) Read(ctx context.Context, collabID, projectID, exptID, runID string) (archive.Record, error) {
	return r.view.Read(ctx, RunKey(collabID, projectID, exptID, runID))
}

func (r *RunRecords) Update(ctx context.Context, collabID, projectID, exptID, runID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, RunKey(collabID, projectID, exptID, runID), patch)
}

func (r *RunRecords) Delete(ctx context.Context, collabID, projectID, exptID, runID string) (archive.Record, error) {
	return r.view.Delete(ctx, RunKey(collabID, projectID, exptID, runID))
}

// ParticipantRecords manages compute participants. Participants sit outside
// the collaboration containment tree; deleting one cascades only through its
// own registration chain.
type ParticipantRecords struct {
	relationalRecords
}

func NewParticipantRecords(docs document.Store, validator *schema.Validator) *ParticipantRecords {
	return &ParticipantRecords{newRelationalRecords(docs, SubjectParticipants, validator)}
}

func (r *ParticipantRecords) Create(ctx context.Context, participantID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, ParticipantKey(participantID), details)
}

func (r *ParticipantRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *ParticipantRecords) Read(ctx context.Context, participantID string) (archive.Record, error) {
	return r.view.Read(ctx, ParticipantKey(participantID))
}

func (r *ParticipantRecords) Update(ctx context.Context, participantID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, ParticipantKey(participantID), patch)
}

func (r *ParticipantRecords) Delete(ctx context.Context, participantID string) (archive.Record, error) {
	return r.view.Delete(ctx, ParticipantKey(participantID))
}

// RegistrationRecords manages the binding of a participant to a project. It
// heads the registration association chain: tags and alignments created for
// the same (project, participant) pair accumulate its link. Reads cross-link
// the project and participant records themselves, un-expanded, so callers see
// both sides of the binding in one fetch.
type RegistrationRecords struct {
	associativeRecords
	generic *archive.Generic
}

func NewRegistrationRecords(docs document.Store, validator *schema.Validator) *RegistrationRecords {
	return &RegistrationRecords{
		associativeRecords: newAssociativeRecords(docs, SubjectRegistrations, validator),
		generic:            archive.NewGeneric(docs),
	}
}

func (r *RegistrationRecords) Create(ctx context.Context, collabID, projectID, participantID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, RegistrationKey(collabID, projectID, participantID), details)
}

func (r *RegistrationRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	records, err := r.view.ReadAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i], err = r.crossLink(ctx, records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (r *RegistrationRecords) Read(ctx context.Context, collabID, projectID, participantID string) (archive.Record, error) {
	rec, err := r.view.Read(ctx, RegistrationKey(collabID, projectID, participantID))
	if err != nil {
		return archive.Record{}, err
	}
	return r.crossLink(ctx, rec)
}

func (r *RegistrationRecords) Update(ctx context.Context, collabID, projectID, participantID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, RegistrationKey(collabID, projectID, participantID), patch)
}

func (r *RegistrationRecords) Delete(ctx context.Context, collabID, projectID, participantID string) (archive.Record, error) {
	return r.view.Delete(ctx, RegistrationKey(collabID, projectID, participantID))
}

// crossLink attaches the registered project and participant records to the
// registration's relations. Both are fetched un-expanded; a side that has
// been removed is simply absent.
func (r *RegistrationRecords) crossLink(ctx context.Context, rec archive.Record) (archive.Record, error) {
	if rec.Relations == nil {
		rec.Relations = make(map[string][]archive.Record, 2)
	}

	project, err := r.generic.Read(ctx, SubjectProjects, archive.FieldKey, archive.Key{
		"collab_id":  rec.Key["collab_id"],
		"project_id": rec.Key["project_id"],
	})
	switch {
	case err == nil:
		rec.Relations[SubjectProjects] = []archive.Record{project}
	case !errors.Is(err, archive.ErrNotFound):
		return archive.Record{}, fmt.Errorf("cross-link project: %w", err)
	}

	participant, err := r.generic.Read(ctx, SubjectParticipants, archive.FieldKey, archive.Key{
		"participant_id": rec.Key["participant_id"],
	})
	switch {
	case err == nil:
		rec.Relations[SubjectParticipants] = []archive.Record{participant}
	case !errors.Is(err, archive.ErrNotFound):
		return archive.Record{}, fmt.Errorf("cross-link participant: %w", err)
	}

	return rec, nil
}

// TagRecords manages the dataset tags a registered participant contributes.
// A tag accumulates the registration's link at creation.
type TagRecords struct {
	associativeRecords
}

func NewTagRecords(docs document.Store, validator *schema.Validator) *TagRecords {
	return &TagRecords{newAssociativeRecords(docs, SubjectTags, validator)}
}

func (r *TagRecords) Create(ctx context.Context, collabID, projectID, participantID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, RegistrationKey(collabID, projectID, participantID), details)
}

func (r *TagRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *TagRecords) Read(ctx context.Context, collabID, projectID, participantID string) (archive.Record, error) {
	return r.view.Read(ctx, RegistrationKey(collabID, projectID, participantID))
}

func (r *TagRecords) Update(ctx context.Context, collabID, projectID, participantID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, RegistrationKey(collabID, projectID, participantID), patch)
}

func (r *TagRecords) Delete(ctx context.Context, collabID, projectID, participantID string) (archive.Record, error) {
	return r.view.Delete(ctx, RegistrationKey(collabID, projectID, participantID))
}
