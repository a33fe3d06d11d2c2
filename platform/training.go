package platform

import (
	"context"

	"github.com/jacentio/synarchive/archive"
	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/schema"
)

// AlignmentRecords manages the feature-alignment artifacts computed for a
// registered participant's tagged datasets. An alignment sits at the bottom
// of the registration chain: its link carries the registration's and tag's
// identifiers.
type AlignmentRecords struct {
	associativeRecords
}

func NewAlignmentRecords(docs document.Store, validator *schema.Validator) *AlignmentRecords {
	return &AlignmentRecords{newAssociativeRecords(docs, SubjectAlignments, validator)}
}

func (r *AlignmentRecords) Create(ctx context.Context, collabID, projectID, participantID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, RegistrationKey(collabID, projectID, participantID), details)
}

func (r *AlignmentRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *AlignmentRecords) Read(ctx context.Context, collabID, projectID, participantID string) (archive.Record, error) {
	return r.view.Read(ctx, RegistrationKey(collabID, projectID, participantID))
}

func (r *AlignmentRecords) Update(ctx context.Context, collabID, projectID, participantID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, RegistrationKey(collabID, projectID, participantID), patch)
}

func (r *AlignmentRecords) Delete(ctx context.Context, collabID, projectID, participantID string) (archive.Record, error) {
	return r.view.Delete(ctx, RegistrationKey(collabID, projectID, participantID))
}

// ModelRecords manages the global models trained per run. Models head the
// evaluation association chain: validations and predictions accumulate a
// model's link when their keys line up.
type ModelRecords struct {
	associativeRecords
}

func NewModelRecords(docs document.Store, validator *schema.Validator) *ModelRecords {
	return &ModelRecords{newAssociativeRecords(docs, SubjectModels, validator)}
}

func (r *ModelRecords) Create(ctx context.Context, collabID, projectID, exptID, runID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, ModelKey(collabID, projectID, exptID, runID), details)
}

func (r *ModelRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *ModelRecords) Read(ctx context.Context, collabID, projectID, exptID, runID string) (archive.Record, error) {
	return r.view.Read(ctx, ModelKey(collabID, projectID, exptID, runID))
}

func (r *ModelRecords) Update(ctx context.Context, collabID, projectID, exptID, runID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, ModelKey(collabID, projectID, exptID, runID), patch)
}

func (r *ModelRecords) Delete(ctx context.Context, collabID, projectID, exptID, runID string) (archive.Record, error) {
	return r.view.Delete(ctx, ModelKey(collabID, projectID, exptID, runID))
}
