package platform

import (
	"context"

	"github.com/jacentio/synarchive/archive"
	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/schema"
)

// ValidationRecords manages per-participant validation statistics for a
// trained model.
type ValidationRecords struct {
	associativeRecords
}

func NewValidationRecords(docs document.Store, validator *schema.Validator) *ValidationRecords {
	return &ValidationRecords{newAssociativeRecords(docs, SubjectValidations, validator)}
}

func (r *ValidationRecords) Create(ctx context.Context, collabID, projectID, exptID, runID, participantID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID), details)
}

func (r *ValidationRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *ValidationRecords) Read(ctx context.Context, collabID, projectID, exptID, runID, participantID string) (archive.Record, error) {
	return r.view.Read(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID))
}

func (r *ValidationRecords) Update(ctx context.Context, collabID, projectID, exptID, runID, participantID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID), patch)
}

func (r *ValidationRecords) Delete(ctx context.Context, collabID, projectID, exptID, runID, participantID string) (archive.Record, error) {
	return r.view.Delete(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID))
}

// PredictionRecords manages per-participant inference outputs for a trained
// model.
type PredictionRecords struct {
	associativeRecords
}

func NewPredictionRecords(docs document.Store, validator *schema.Validator) *PredictionRecords {
	return &PredictionRecords{newAssociativeRecords(docs, SubjectPredictions, validator)}
}

func (r *PredictionRecords) Create(ctx context.Context, collabID, projectID, exptID, runID, participantID string, details archive.Details) (archive.Record, error) {
	return r.create(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID), details)
}

func (r *PredictionRecords) ReadAll(ctx context.Context, filter archive.Filter) ([]archive.Record, error) {
	return r.view.ReadAll(ctx, filter)
}

func (r *PredictionRecords) Read(ctx context.Context, collabID, projectID, exptID, runID, participantID string) (archive.Record, error) {
	return r.view.Read(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID))
}

func (r *PredictionRecords) Update(ctx context.Context, collabID, projectID, exptID, runID, participantID string, patch archive.Details) (archive.Record, error) {
	return r.update(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID), patch)
}

func (r *PredictionRecords) Delete(ctx context.Context, collabID, projectID, exptID, runID, participantID string) (archive.Record, error) {
	return r.view.Delete(ctx, InferenceKey(collabID, projectID, exptID, runID, participantID))
}
