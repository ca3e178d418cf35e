package services

import (
	"context"

	"github.com/google/uuid"

	"datalens-backend/internal/events"
	"datalens-backend/internal/logger"
	"datalens-backend/internal/models"
	"datalens-backend/internal/tabular"
)

// Pipeline runs the two external processing stages for one file. A nil error
// means the stage reported success.
type Pipeline interface {
	CleanData(ctx context.Context, fileUUID string) (*tabular.Archive, error)
	AnalyzeData(ctx context.Context, fileUUID string) (*tabular.Archive, error)
}

type ProjectStatusStore interface {
	UpdateProjectStatus(projectID uuid.UUID, status string) error
}

// Loader drives a batch of projects through the cleaning and analysis
// pipelines and promotes each project to active only when every one of its
// files passed both stages.
type Loader struct {
	pipeline Pipeline
	store    ProjectStatusStore
	events   *events.Publisher
	log      *logger.Logger
}

func NewLoader(pipeline Pipeline, store ProjectStatusStore, publisher *events.Publisher, log *logger.Logger) *Loader {
	return &Loader{
		pipeline: pipeline,
		store:    store,
		events:   publisher,
		log:      log,
	}
}

// LoadProjects processes the batch in input order, one project and one file
// at a time, then merges the batch into the caller's existing collection.
// A failing file or project never aborts the batch and is never retried; the
// affected project simply stays inactive.
func (l *Loader) LoadProjects(ctx context.Context, existing, batch []models.Project) []models.Project {
	for i := range batch {
		project := &batch[i]
		l.log.Infow("processing project", "project_id", project.ID)

		if l.events != nil {
			l.events.PublishProjectEvent(project.ID, "pipeline_started",
				events.PipelineStartedPayload(project.ID, len(project.Files)))
		}

		allFilesProcessed := true
		for _, file := range project.Files {
			if !l.processFile(ctx, project.ID, file.FileUUID) {
				allFilesProcessed = false
			}
		}

		if !allFilesProcessed {
			continue
		}

		if err := l.store.UpdateProjectStatus(project.ID, models.ProjectStatusActive); err != nil {
			l.log.Errorw("failed to persist project activation", "project_id", project.ID, "error", err)
			continue
		}
		project.Status = models.ProjectStatusActive

		if l.events != nil {
			l.events.PublishProjectEvent(project.ID, "pipeline_completed",
				events.PipelineCompletedPayload(project.ID))
		}
	}

	return MergeProjects(existing, batch)
}

// processFile runs cleaning then analysis for one file. Analysis is only
// attempted after cleaning reports success; this ordering is a hard
// precondition of the pipeline service.
func (l *Loader) processFile(ctx context.Context, projectID uuid.UUID, fileUUID string) bool {
	l.log.Infow("running data cleaning pipeline", "file_uuid", fileUUID)
	if _, err := l.pipeline.CleanData(ctx, fileUUID); err != nil {
		l.log.Errorw("data cleaning pipeline failed", "file_uuid", fileUUID, "error", err)
		if l.events != nil {
			l.events.PublishProjectEvent(projectID, "pipeline_failed",
				events.PipelineFailedPayload(projectID, fileUUID))
		}
		return false
	}

	l.log.Infow("running data analysis pipeline", "file_uuid", fileUUID)
	if _, err := l.pipeline.AnalyzeData(ctx, fileUUID); err != nil {
		l.log.Errorw("data analysis pipeline failed", "file_uuid", fileUUID, "error", err)
		if l.events != nil {
			l.events.PublishProjectEvent(projectID, "pipeline_failed",
				events.PipelineFailedPayload(projectID, fileUUID))
		}
		return false
	}

	return true
}

// MergeProjects folds a processed batch into an existing collection by id.
// Matching entries are replaced field-by-field, keeping the previously
// resolved status when the incoming record carries none; new entries are
// appended. Re-running a batch therefore never duplicates projects and never
// downgrades an already-active one to an empty status.
func MergeProjects(existing, incoming []models.Project) []models.Project {
	merged := make([]models.Project, len(existing))
	copy(merged, existing)

	for _, project := range incoming {
		found := false
		for i := range merged {
			if merged[i].ID != project.ID {
				continue
			}
			if project.Status == "" {
				project.Status = merged[i].Status
			}
			merged[i] = project
			found = true
			break
		}
		if !found {
			merged = append(merged, project)
		}
	}

	return merged
}
